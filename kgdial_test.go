package kgdial

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/siherrmann/kgdial/core/pipeline"
	"github.com/siherrmann/kgdial/database"
	"github.com/siherrmann/kgdial/helper"
	"github.com/siherrmann/kgdial/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEmbedder creates a simple deterministic embedder for testing
func testEmbedder(dimension int) pipeline.EmbedFunc {
	return func(text string) ([]float32, error) {
		embedding := make([]float32, dimension)
		for i := 0; i < dimension; i++ {
			embedding[i] = float32((len(text)+i)%100+1) / 100.0
		}
		return embedding, nil
	}
}

// testMentionExtractor recognizes the given names as mentions
func testMentionExtractor(names ...string) pipeline.MentionExtractFunc {
	return func(text string) ([]pipeline.Mention, error) {
		mentions := []pipeline.Mention{}
		for _, name := range names {
			if start := strings.Index(text, name); start >= 0 {
				mentions = append(mentions, pipeline.Mention{Text: name, Label: "PER", Score: 1, Start: start, End: start + len(name)})
			}
		}
		return mentions, nil
	}
}

// testGenerator replies with the knowledge part of the prompt
func testGenerator(ctx context.Context, prompt string, params pipeline.GenerationParams) (string, error) {
	knowledge, _, found := strings.Cut(prompt, " <SEP> ")
	if !found {
		return prompt + " Hello!", nil
	}
	return prompt + " " + knowledge + ".", nil
}

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	content, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, content, 0o600))
}

func testConfig(t *testing.T) Config {
	dir := t.TempDir()
	config := DefaultConfig()
	config.Tables = model.TableFiles{
		TypePaths:  filepath.Join(dir, "type_paths.json"),
		TypeGroups: filepath.Join(dir, "type_groups.json"),
		RelFreq:    filepath.Join(dir, "rel_freq.json"),
	}

	writeJSON(t, config.Tables.TypePaths, model.TypePathTable{
		"Q5": {
			{Path: model.Path{"P19"}, Score: 0.8},
			{Path: model.Path{"P69"}, Score: 0.4},
		},
	})
	writeJSON(t, config.Tables.TypeGroups, model.TypeGroupTable{
		"Q215627": {"Q5", "Q15632617"},
	})
	writeJSON(t, config.Tables.RelFreq, model.RelationFrequencyTable{
		"P19": {1000},
		"P69": {200},
	})

	return config
}

func initDialog(t *testing.T, config Config) *Dialog {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")

	d, err := NewDialog(dbConfig, config)
	require.NoError(t, err, "failed to create dialog")
	require.NotNil(t, d, "expected dialog to be non-nil")

	t.Cleanup(func() {
		d.Close()
	})

	return d
}

func insertTestGraph(t *testing.T, d *Dialog) {
	err := d.InsertGraph(context.Background(),
		[]*model.Entity{
			{ID: "Q42", Label: "Douglas Adams"},
			{ID: "Q350", Label: "Cambridge"},
			{ID: "Q691283", Label: "St John's College"},
			{ID: "Q5", Label: "human"},
		},
		[]*model.Relation{
			{ID: "P19", Label: "place of birth"},
			{ID: "P31", Label: "instance of"},
			{ID: "P69", Label: "educated at"},
		},
		[]*model.Fact{
			{Subject: "Q42", Relation: "P31", Object: "Q5"},
			{Subject: "Q42", Relation: "P19", Object: "Q350"},
			{Subject: "Q42", Relation: "P69", Object: "Q691283"},
		},
	)
	require.NoError(t, err, "failed to insert test graph")
}

func TestNewDialog(t *testing.T) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)

	t.Run("Valid call NewDialog in statistic mode", func(t *testing.T) {
		config := testConfig(t)
		config.Ranker.UsePathStat = true

		d, err := NewDialog(dbConfig, config)
		require.NoError(t, err, "Expected NewDialog to not return an error")
		require.NotNil(t, d)
		assert.NotNil(t, d.DB, "Expected dialog to have a database instance")
		assert.NotNil(t, d.Entities, "Expected dialog to have entities handler")
		assert.NotNil(t, d.Triples, "Expected dialog to have triples handler")
		assert.NotNil(t, d.Relations, "Expected dialog to have relations handler")
		assert.NotNil(t, d.Graph, "Expected dialog to have a knowledge graph")
		assert.NotNil(t, d.Ranker, "Expected the statistic ranker without pipeline")
		assert.Nil(t, d.Pipeline, "Expected pipeline to be nil initially")
		assert.Nil(t, d.Generator)

		err = d.Close()
		assert.NoError(t, err, "Expected Close to not return an error")
	})

	t.Run("Ranking mode waits for a pipeline", func(t *testing.T) {
		d, err := NewDialog(dbConfig, testConfig(t))
		require.NoError(t, err)
		defer d.Close()

		assert.Nil(t, d.Ranker)
		_, err = d.Rank(context.Background(), []string{"hi"}, [][]model.EntityRef{nil})
		assert.Error(t, err)
	})

	t.Run("Invalid call NewDialog with missing tables", func(t *testing.T) {
		config := testConfig(t)
		config.Tables.TypePaths = filepath.Join(t.TempDir(), "missing.json")

		_, err := NewDialog(dbConfig, config)
		assert.Error(t, err)
	})

	t.Run("Invalid call NewDialog with invalid ranker config", func(t *testing.T) {
		config := testConfig(t)
		config.Ranker.UsePathStat = true
		config.Ranker.Parallelism = 0

		_, err := NewDialog(dbConfig, config)
		assert.ErrorIs(t, err, model.ErrInvalidConfig)
	})

	t.Run("Dialog with nil database handles Close gracefully", func(t *testing.T) {
		d := &Dialog{}
		err := d.Close()
		assert.NoError(t, err, "Expected Close to handle nil DB gracefully")
	})
}

func TestSetPipeline(t *testing.T) {
	d := initDialog(t, testConfig(t))

	t.Run("Embedder enables the ranker", func(t *testing.T) {
		err := d.SetPipeline(pipeline.NewPipeline(testEmbedder(pipeline.EmbeddingDim)))
		require.NoError(t, err)
		assert.NotNil(t, d.Ranker)
		assert.Nil(t, d.Linker)
		assert.Nil(t, d.Generator)
	})

	t.Run("Full pipeline enables all components", func(t *testing.T) {
		p := pipeline.NewPipeline(testEmbedder(pipeline.EmbeddingDim))
		p.SetMentionExtractor(testMentionExtractor("Douglas Adams"))
		p.SetGenerator(testGenerator)

		err := d.SetPipeline(p)
		require.NoError(t, err)
		assert.Equal(t, p, d.Pipeline)
		assert.NotNil(t, d.Ranker)
		assert.NotNil(t, d.Linker)
		assert.NotNil(t, d.Generator)
	})

	t.Run("Set pipeline to nil", func(t *testing.T) {
		err := d.SetPipeline(nil)
		require.NoError(t, err)
		assert.Nil(t, d.Pipeline)
		assert.Nil(t, d.Ranker)
		assert.Nil(t, d.Linker)
		assert.Nil(t, d.Generator)
	})
}

func TestRank(t *testing.T) {
	ctx := context.Background()

	t.Run("Statistic mode grounds the reply in the stored graph", func(t *testing.T) {
		config := testConfig(t)
		config.Ranker.UsePathStat = true
		d := initDialog(t, config)
		insertTestGraph(t, d)

		results, err := d.Rank(ctx,
			[]string{"Where was Douglas Adams born?", "Hi there"},
			[][]model.EntityRef{model.EntityRefs("Q42"), nil},
		)
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, model.OutcomeRetrieved, results[0].Outcome)
		assert.Equal(t, model.Path{"P19"}, results[0].Relations)
		assert.Equal(t, []string{"Douglas Adams place of birth Cambridge"}, results[0].Texts())
		assert.InDelta(t, math.Log(1000)/8.0*0.9, results[0].Confidence, 1e-9)

		assert.Equal(t, model.OutcomeNoSeedEntity, results[1].Outcome)
		assert.Equal(t, 0.4, results[1].Confidence)
	})

	t.Run("Ranking mode retrieves a candidate path", func(t *testing.T) {
		d := initDialog(t, testConfig(t))
		require.NoError(t, d.SetPipeline(pipeline.NewPipeline(testEmbedder(pipeline.EmbeddingDim))))
		insertTestGraph(t, d)

		relation, err := d.Relations.SelectRelation(ctx, "P19")
		require.NoError(t, err)
		assert.Len(t, relation.Embedding, pipeline.EmbeddingDim, "Expected relations to be embedded on insert")

		results, err := d.Rank(ctx, []string{"Where did Douglas Adams study?"}, [][]model.EntityRef{model.EntityRefs("Q42")})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, model.OutcomeRetrieved, results[0].Outcome)
		assert.Contains(t, []string{"P19", "P69"}, results[0].Relations.String())
		assert.Greater(t, results[0].Confidence, 0.0)
	})

	t.Run("Entity outside the tables has no candidates", func(t *testing.T) {
		config := testConfig(t)
		config.Ranker.UsePathStat = true
		d := initDialog(t, config)
		insertTestGraph(t, d)

		results, err := d.Rank(ctx, []string{"What is Cambridge?"}, [][]model.EntityRef{model.EntityRefs("Q350")})
		require.NoError(t, err)
		assert.Equal(t, model.OutcomeNoCandidatePaths, results[0].Outcome)
		assert.Equal(t, 0.0, results[0].Confidence)
	})
}

func TestRespond(t *testing.T) {
	ctx := context.Background()
	config := testConfig(t)
	config.Ranker.UsePathStat = true
	d := initDialog(t, config)
	insertTestGraph(t, d)

	p := pipeline.NewPipeline(testEmbedder(pipeline.EmbeddingDim))
	p.SetMentionExtractor(testMentionExtractor("Douglas Adams"))
	p.SetGenerator(testGenerator)
	require.NoError(t, d.SetPipeline(p))

	t.Run("Links, ranks and generates", func(t *testing.T) {
		replies, err := d.Respond(ctx, []string{"Where was Douglas Adams born?", "Hi"}, nil)
		require.NoError(t, err)
		require.Len(t, replies, 2)

		assert.Equal(t, model.EntityRefs("Q42"), replies[0].Entities)
		assert.Equal(t, model.OutcomeRetrieved, replies[0].Rank.Outcome)
		assert.Equal(t, "Douglas Adams place of birth Cambridge.", replies[0].Text)

		assert.Equal(t, model.OutcomeNoSeedEntity, replies[1].Rank.Outcome)
		assert.Equal(t, "Hello!", replies[1].Text, "Expected the no entity prior to pass the threshold")
	})

	t.Run("Given entities are not linked again", func(t *testing.T) {
		replies, err := d.Respond(ctx, []string{"Douglas Adams"}, [][]model.EntityRef{model.EntityRefs("Q350")})
		require.NoError(t, err)
		assert.Equal(t, model.EntityRefs("Q350"), replies[0].Entities)
		assert.Equal(t, "", replies[0].Text, "Expected no generation below the threshold")
	})

	t.Run("Mismatched batch lengths", func(t *testing.T) {
		_, err := d.Respond(ctx, []string{"a", "b"}, [][]model.EntityRef{nil})
		assert.ErrorIs(t, err, model.ErrBatchMismatch)
	})
}

func TestLinkEntities(t *testing.T) {
	ctx := context.Background()
	d := initDialog(t, testConfig(t))
	insertTestGraph(t, d)

	t.Run("Linker requires a mention extractor", func(t *testing.T) {
		_, err := d.LinkEntities(ctx, "Douglas Adams")
		assert.Error(t, err)
	})

	t.Run("Mentions are linked by label", func(t *testing.T) {
		p := pipeline.NewPipeline(testEmbedder(pipeline.EmbeddingDim))
		p.SetMentionExtractor(testMentionExtractor("Douglas Adams", "Cambridge"))
		require.NoError(t, d.SetPipeline(p))

		refs, err := d.LinkEntities(ctx, "Did Douglas Adams live in Cambridge?")
		require.NoError(t, err)
		assert.Equal(t, model.EntityRefs("Q42", "Q350"), refs)
	})
}

func TestRelationFrequencies(t *testing.T) {
	config := testConfig(t)
	config.Ranker.UsePathStat = true
	d := initDialog(t, config)
	insertTestGraph(t, d)

	frequencies, err := d.RelationFrequencies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, frequencies["P19"])
	assert.Equal(t, []float64{1}, frequencies["P31"])
}

func TestChangeIndexType(t *testing.T) {
	d := initDialog(t, testConfig(t))
	ctx := context.Background()

	t.Run("Rebuilds the relation index", func(t *testing.T) {
		err := d.ChangeIndexType(ctx, database.IndexIVFFlat, database.IndexOptions{Lists: 10})
		assert.NoError(t, err)

		err = d.ChangeIndexType(ctx, database.IndexHNSW, database.DefaultIndexOptions())
		assert.NoError(t, err)
	})

	t.Run("Unsupported index type", func(t *testing.T) {
		err := d.ChangeIndexType(ctx, database.IndexType("gist"), database.IndexOptions{})
		assert.Error(t, err)
	})
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Run("Defaults without environment", func(t *testing.T) {
		config, err := NewConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Ranker, config.Ranker)
		assert.Equal(t, pipeline.EmbeddingDim, config.EmbeddingDim)
	})

	t.Run("Environment overrides defaults", func(t *testing.T) {
		t.Setenv("KGDIAL_MAX_LOG_FREQ", "10")
		t.Setenv("KGDIAL_USE_PATH_STAT", "true")
		t.Setenv("KGDIAL_CONF_THRES", "0.5")
		t.Setenv("KGDIAL_WIKI_PARSER_URL", "http://localhost:8077/model")
		t.Setenv("KGDIAL_TYPE_PATHS_FILE", "/tmp/type_paths.json")

		config, err := NewConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, 10.0, config.Ranker.MaxLogFreq)
		assert.True(t, config.Ranker.UsePathStat)
		assert.Equal(t, 0.5, config.Generator.ConfThres)
		assert.Equal(t, "http://localhost:8077/model", config.WikiParserURL)
		assert.Equal(t, "/tmp/type_paths.json", config.Tables.TypePaths)
	})

	t.Run("Malformed values are an error", func(t *testing.T) {
		t.Setenv("KGDIAL_MAX_LOG_FREQ", "eight")
		t.Setenv("KGDIAL_USE_PATH_STAT", "yes")

		_, err := NewConfigFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "KGDIAL_MAX_LOG_FREQ")
		assert.Contains(t, err.Error(), "KGDIAL_USE_PATH_STAT")
	})

	t.Run("NaN max_log_freq is rejected", func(t *testing.T) {
		t.Setenv("KGDIAL_MAX_LOG_FREQ", "NaN")

		_, err := NewConfigFromEnv()
		assert.ErrorIs(t, err, model.ErrInvalidConfig)
	})
}
