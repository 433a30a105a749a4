package kgdial

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/kgdial/core/generation"
	"github.com/siherrmann/kgdial/core/graph"
	"github.com/siherrmann/kgdial/core/pipeline"
	"github.com/siherrmann/kgdial/core/retrieval"
	"github.com/siherrmann/kgdial/database"
	"github.com/siherrmann/kgdial/helper"
	"github.com/siherrmann/kgdial/model"
	loadSql "github.com/siherrmann/kgdial/sql"
)

// Dialog provides a unified interface to the knowledge graph store,
// the path ranker and the utterance generator
type Dialog struct {
	DB        *helper.Database
	Entities  *database.EntitiesDBHandler
	Triples   *database.TriplesDBHandler
	Relations *database.RelationsDBHandler
	Graph     graph.KnowledgeGraph
	Pipeline  *pipeline.Pipeline // Optional model pipeline

	// Built from the pipeline, nil while their models are missing
	Ranker    *retrieval.PathRanker
	Linker    *retrieval.EntityLinker
	Generator *generation.Generator

	tables *model.Tables
	config Config
	// Logging
	log *slog.Logger
}

// NewDialog creates a new Dialog instance with all handlers initialized.
// In statistic mode the ranker is ready right away, in ranking mode it
// needs a pipeline with embedder.
func NewDialog(dbConfig *helper.DatabaseConfiguration, config Config) (*Dialog, error) {
	tables, err := model.LoadTables(config.Tables)
	if err != nil {
		return nil, helper.NewError("load tables", err)
	}
	return NewDialogWithTables(dbConfig, config, tables)
}

// NewDialogWithTables creates a new Dialog with already loaded tables
func NewDialogWithTables(dbConfig *helper.DatabaseConfiguration, config Config, tables *model.Tables) (*Dialog, error) {
	if tables == nil {
		return nil, helper.NewError("tables validation", fmt.Errorf("tables are nil"))
	}

	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db, err := helper.NewDatabase("kgdial", dbConfig, logger)
	if err != nil {
		return nil, helper.NewError("connect database", err)
	}
	err = loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	entities, err := database.NewEntitiesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}

	triples, err := database.NewTriplesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create triples handler", err)
	}

	relations, err := database.NewRelationsDBHandler(db, config.EmbeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create relations handler", err)
	}

	var kg graph.KnowledgeGraph
	if config.WikiParserURL != "" {
		kg, err = graph.NewRemoteService(graph.RemoteConfig{
			URL:             config.WikiParserURL,
			UseAPIRequester: config.Ranker.UseAPIRequester,
		}, logger)
	} else {
		kg, err = graph.NewService(triples, entities, relations, config.Graph, logger)
	}
	if err != nil {
		return nil, helper.NewError("create knowledge graph", err)
	}

	d := &Dialog{
		DB:        db,
		Entities:  entities,
		Triples:   triples,
		Relations: relations,
		Graph:     kg,
		tables:    tables,
		config:    config,
		log:       logger,
	}

	err = d.buildComponents()
	if err != nil {
		return nil, err
	}

	return d, nil
}

// Close closes the database connection
func (d *Dialog) Close() error {
	if d.DB != nil && d.DB.Instance != nil {
		return d.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the model pipeline and rebuilds the ranker, the entity
// linker and the generator from it
func (d *Dialog) SetPipeline(p *pipeline.Pipeline) error {
	d.Pipeline = p
	return d.buildComponents()
}

// UseDefaultPipeline sets up the default embedder and mention extractor.
// The generator is only set up if config.GeneratorModel names a model.
func (d *Dialog) UseDefaultPipeline() error {
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}
	p := pipeline.NewPipeline(embedder)

	extractor, err := pipeline.DefaultMentionExtractor()
	if err != nil {
		return helper.NewError("create default mention extractor", err)
	}
	p.SetMentionExtractor(extractor)

	if d.config.GeneratorModel != "" {
		generator, err := pipeline.DefaultGenerator(d.config.GeneratorModel, d.config.Generator.MaxLength)
		if err != nil {
			return helper.NewError("create default generator", err)
		}
		p.SetGenerator(generator)
	}

	return d.SetPipeline(p)
}

func (d *Dialog) buildComponents() error {
	var relevance retrieval.RelevanceRanker
	if d.Pipeline != nil && d.Pipeline.Embedder != nil {
		embeddingRanker, err := retrieval.NewEmbeddingRelevanceRanker(d.Pipeline.Embedder, d.Relations)
		if err != nil {
			return helper.NewError("create relevance ranker", err)
		}
		relevance = embeddingRanker
	}

	d.Ranker = nil
	if d.config.Ranker.UsePathStat || relevance != nil {
		ranker, err := retrieval.NewPathRanker(d.Graph, relevance, d.tables, d.config.Ranker, d.log)
		if err != nil {
			return helper.NewError("create path ranker", err)
		}
		d.Ranker = ranker
	}

	d.Linker = nil
	if d.Pipeline != nil && d.Pipeline.MentionExtractor != nil {
		linker, err := retrieval.NewEntityLinker(d.Pipeline.MentionExtractor, d.Entities, d.config.MaxEntityCandidates, d.log)
		if err != nil {
			return helper.NewError("create entity linker", err)
		}
		d.Linker = linker
	}

	d.Generator = nil
	if d.Pipeline != nil && d.Pipeline.Generator != nil {
		generator, err := generation.NewGenerator(d.Pipeline.Generator, d.config.Generator, d.log)
		if err != nil {
			return helper.NewError("create generator", err)
		}
		d.Generator = generator
	}

	return nil
}

// Rank selects the grounding path for every utterance of a batch
func (d *Dialog) Rank(ctx context.Context, utterances []string, entities [][]model.EntityRef) ([]model.RankResult, error) {
	if d.Ranker == nil {
		return nil, helper.NewError("rank", fmt.Errorf("ranker not initialized, use SetPipeline() first or enable use_path_stat"))
	}
	return d.Ranker.Rank(ctx, utterances, entities)
}

// LinkEntities finds the stored entities mentioned in an utterance
func (d *Dialog) LinkEntities(ctx context.Context, utterance string) ([]model.EntityRef, error) {
	if d.Linker == nil {
		return nil, helper.NewError("link entities", fmt.Errorf("pipeline with mention extractor not set, use SetPipeline() first"))
	}
	return d.Linker.Link(ctx, utterance)
}

// Generate produces replies from previous utterances, rendered triplets
// and ranking confidences
func (d *Dialog) Generate(ctx context.Context, prevUtterances []string, triplets [][]string, confidences []float64) ([]string, []float64, error) {
	if d.Generator == nil {
		return nil, nil, helper.NewError("generate", fmt.Errorf("pipeline with generator not set, use SetPipeline() first"))
	}
	return d.Generator.Generate(ctx, prevUtterances, triplets, confidences)
}

// Respond ranks every utterance and generates a reply from the chosen path.
// Items without entities are linked first when linking is enabled.
// A nil entities slice means no item has entities.
func (d *Dialog) Respond(ctx context.Context, utterances []string, entities [][]model.EntityRef) ([]model.Reply, error) {
	if entities == nil {
		entities = make([][]model.EntityRef, len(utterances))
	}
	if len(utterances) != len(entities) {
		return nil, helper.NewError("respond", fmt.Errorf("%w: %d utterances but %d entity lists", model.ErrBatchMismatch, len(utterances), len(entities)))
	}

	linked := make([][]model.EntityRef, len(entities))
	for i, refs := range entities {
		linked[i] = refs
		if len(refs) > 0 || !d.config.LinkEntities || d.Linker == nil {
			continue
		}

		found, err := d.Linker.Link(ctx, utterances[i])
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("link entities of item %d", i), err)
		}
		linked[i] = found
	}

	results, err := d.Rank(ctx, utterances, linked)
	if err != nil {
		return nil, err
	}

	triplets := make([][]string, len(results))
	confidences := make([]float64, len(results))
	for i, result := range results {
		triplets[i] = result.Texts()
		confidences[i] = result.Confidence
	}

	texts, _, err := d.Generate(ctx, utterances, triplets, confidences)
	if err != nil {
		return nil, err
	}

	replies := make([]model.Reply, len(results))
	for i, result := range results {
		replies[i] = model.Reply{
			Utterance: utterances[i],
			Entities:  linked[i],
			Text:      texts[i],
			Rank:      result,
		}
	}

	return replies, nil
}

// InsertGraph stores entities, relations and triples. Relations are
// embedded from their labels if a pipeline with embedder is set.
func (d *Dialog) InsertGraph(ctx context.Context, entities []*model.Entity, relations []*model.Relation, facts []*model.Fact) error {
	for _, entity := range entities {
		err := d.Entities.InsertEntity(ctx, entity)
		if err != nil {
			return helper.NewError(fmt.Sprintf("insert entity %s", entity.ID), err)
		}
	}

	if d.Pipeline != nil && d.Pipeline.Embedder != nil {
		err := d.Pipeline.EmbedRelations(relations)
		if err != nil {
			return helper.NewError("embed relations", err)
		}
	}
	for _, relation := range relations {
		err := d.Relations.InsertRelation(ctx, relation)
		if err != nil {
			return helper.NewError(fmt.Sprintf("insert relation %s", relation.ID), err)
		}
	}

	for _, fact := range facts {
		err := d.Triples.InsertTriple(ctx, fact)
		if err != nil {
			return helper.NewError(fmt.Sprintf("insert triple %s %s %s", fact.Subject, fact.Relation, fact.Object), err)
		}
	}

	d.log.Info("Inserted graph", slog.Int("entities", len(entities)), slog.Int("relations", len(relations)), slog.Int("triples", len(facts)))

	return nil
}

// RelationFrequencies counts the stored triples per relation in the
// format of the relation frequency table
func (d *Dialog) RelationFrequencies(ctx context.Context) (model.RelationFrequencyTable, error) {
	counts, err := d.Triples.CountTriplesByRelation(ctx)
	if err != nil {
		return nil, helper.NewError("count triples by relation", err)
	}

	table := make(model.RelationFrequencyTable, len(counts))
	for relation, count := range counts {
		table[relation] = []float64{float64(count)}
	}
	return table, nil
}

// ChangeIndexType rebuilds the relation embedding index as HNSW or IVFFlat
func (d *Dialog) ChangeIndexType(ctx context.Context, indexType database.IndexType, options database.IndexOptions) error {
	return d.Relations.ChangeIndexType(ctx, indexType, options)
}
