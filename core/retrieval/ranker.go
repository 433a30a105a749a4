package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/siherrmann/kgdial/core/graph"
	"github.com/siherrmann/kgdial/helper"
	"github.com/siherrmann/kgdial/model"
	"golang.org/x/sync/errgroup"
)

// PathRanker selects the knowledge graph path that grounds a reply
// to an utterance about a seed entity
type PathRanker struct {
	kg       graph.KnowledgeGraph
	tables   *model.Tables
	strategy Strategy
	config   model.RankerConfig
	logger   *slog.Logger
}

// NewPathRanker creates a new path ranker. The relevance ranker is only
// used, and only required, when config.UsePathStat is false.
func NewPathRanker(kg graph.KnowledgeGraph, relevance RelevanceRanker, tables *model.Tables, config model.RankerConfig, logger *slog.Logger) (*PathRanker, error) {
	if kg == nil {
		return nil, helper.NewError("knowledge graph validation", fmt.Errorf("knowledge graph is nil"))
	}
	if tables == nil {
		return nil, helper.NewError("tables validation", fmt.Errorf("tables are nil"))
	}
	err := config.Validate()
	if err != nil {
		return nil, helper.NewError("config validation", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	var strategy Strategy
	if config.UsePathStat {
		strategy = NewStatisticStrategy()
	} else {
		if relevance == nil {
			return nil, helper.NewError("config validation", fmt.Errorf("%w: ranking mode requires a relevance ranker", model.ErrInvalidConfig))
		}
		strategy = NewRankingStrategy(relevance)
	}

	typePaths, typeGroups, relFreq := tables.Sizes()
	logger.Info(
		"Initialized PathRanker",
		slog.Bool("use_path_stat", config.UsePathStat),
		slog.Int("type_paths", typePaths),
		slog.Int("type_groups", typeGroups),
		slog.Int("relation_frequencies", relFreq),
	)

	return &PathRanker{
		kg:       kg,
		tables:   tables,
		strategy: strategy,
		config:   config,
		logger:   logger,
	}, nil
}

// Rank ranks every item of a batch. Results are positional to utterances.
// Items are ranked concurrently and independently, a collaborator failure
// fails the whole batch.
func (r *PathRanker) Rank(ctx context.Context, utterances []string, entities [][]model.EntityRef) ([]model.RankResult, error) {
	if len(utterances) != len(entities) {
		return nil, helper.NewError("rank", fmt.Errorf("%w: %d utterances but %d entity lists", model.ErrBatchMismatch, len(utterances), len(entities)))
	}

	start := time.Now()
	results := make([]model.RankResult, len(utterances))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Parallelism)
	for i := range utterances {
		g.Go(func() error {
			result, err := r.RankOne(gctx, utterances[i], entities[i])
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			results[i] = result
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, helper.NewError("rank", err)
	}

	r.logger.Info("ranker time", slog.Int("batch_size", len(utterances)), slog.Duration("time", time.Since(start)))

	return results, nil
}

// RankOne ranks a single utterance with its linked entities.
// Only the first entity seeds the search.
func (r *PathRanker) RankOne(ctx context.Context, utterance string, entities []model.EntityRef) (model.RankResult, error) {
	if len(entities) == 0 {
		return model.EmptyRankResult(r.config.NoEntityConfidence, model.OutcomeNoSeedEntity), nil
	}

	seed, ok := entities[0].Seed()
	if !ok {
		return model.EmptyRankResult(r.config.NoEntityConfidence, model.OutcomeNoSeedEntity), nil
	}
	r.logger.Debug("seed entity", slog.String("entity", seed))

	types, err := r.kg.FindTypes(ctx, seed)
	if err != nil {
		return model.RankResult{}, helper.NewError("find types", err)
	}
	r.logger.Debug("entity types", slog.String("entity", seed), slog.Any("types", types))

	candidates := candidatesForTypes(r.tables, types)
	if candidates.IsEmpty() {
		r.logger.Debug("no candidate paths, looking in type groups", slog.String("entity", seed))

		expanded, err := expandTypes(ctx, r.kg, r.tables, types)
		if err != nil {
			return model.RankResult{}, helper.NewError("expand types", err)
		}
		candidates = candidatesForTypes(r.tables, expanded)
	}

	if candidates.IsEmpty() {
		return seeded(model.EmptyRankResult(0.0, model.OutcomeNoCandidatePaths), seed), nil
	}

	topPaths, err := r.strategy.TopPaths(ctx, utterance, candidates)
	if err != nil {
		return model.RankResult{}, helper.NewError("top paths", err)
	}
	if len(topPaths) == 0 {
		return seeded(model.EmptyRankResult(0.0, model.OutcomeNoConcreteRetrieval), seed), nil
	}
	r.logger.Debug("top paths", slog.String("entity", seed), slog.Int("count", len(topPaths)), slog.String("first", topPaths[0].String()))

	start := time.Now()
	retrieved, err := r.kg.RetrievePaths(ctx, seed, topPaths)
	if err != nil {
		return model.RankResult{}, helper.NewError("retrieve paths", err)
	}
	r.logger.Info("graph retrieval time", slog.String("entity", seed), slog.Duration("time", time.Since(start)))

	if len(retrieved) == 0 {
		return seeded(model.EmptyRankResult(0.0, model.OutcomeNoConcreteRetrieval), seed), nil
	}

	chosen := retrieved[0]
	result := model.RankResult{
		Triplets:   chosen.Triplets,
		Relations:  chosen.Relations,
		Outcome:    model.OutcomeRetrieved,
		SeedEntity: seed,
	}
	if result.Triplets == nil {
		result.Triplets = []model.Triplet{}
	}
	if result.Relations == nil {
		result.Relations = model.Path{}
	}

	confidence, ok := PathConfidence(chosen.Relations, r.tables, r.config.MaxLogFreq, r.config.ConfidenceDiscount)
	if !ok {
		r.logger.Debug("relation frequency undefined", slog.String("relations", chosen.Relations.String()))
		result.Outcome = model.OutcomeFrequencyUndefined
	}
	result.Confidence = confidence

	return result, nil
}

func seeded(result model.RankResult, seed string) model.RankResult {
	result.SeedEntity = seed
	return result
}
