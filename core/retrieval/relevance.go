package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/siherrmann/kgdial/core/pipeline"
	"github.com/siherrmann/kgdial/helper"
	"github.com/siherrmann/kgdial/model"
)

// RelationSimilarities returns the similarity of stored relation
// label embeddings to an utterance embedding
type RelationSimilarities interface {
	SelectRelationSimilarities(ctx context.Context, embedding []float32, ids []string) (map[string]float64, error)
}

// EmbeddingRelevanceRanker scores a path by the mean similarity of its
// relation labels to the utterance
type EmbeddingRelevanceRanker struct {
	embed     pipeline.EmbedFunc
	relations RelationSimilarities
}

// NewEmbeddingRelevanceRanker creates a new embedding based relevance ranker
func NewEmbeddingRelevanceRanker(embed pipeline.EmbedFunc, relations RelationSimilarities) (*EmbeddingRelevanceRanker, error) {
	if embed == nil {
		return nil, helper.NewError("embedder validation", fmt.Errorf("embedder is nil"))
	}
	if relations == nil {
		return nil, helper.NewError("relations validation", fmt.Errorf("relation similarities are nil"))
	}

	return &EmbeddingRelevanceRanker{
		embed:     embed,
		relations: relations,
	}, nil
}

// RankPaths scores every candidate and sorts by descending score.
// Candidates with equal score keep their input order.
func (e *EmbeddingRelevanceRanker) RankPaths(ctx context.Context, utterance string, candidates []model.Path) ([]model.RankedPath, error) {
	if len(candidates) == 0 {
		return []model.RankedPath{}, nil
	}

	embedding, err := e.embed(utterance)
	if err != nil {
		return nil, helper.NewError("embed utterance", err)
	}

	seen := map[string]bool{}
	var ids []string
	for _, path := range candidates {
		for _, relation := range path {
			if !seen[relation] {
				seen[relation] = true
				ids = append(ids, relation)
			}
		}
	}

	similarities, err := e.relations.SelectRelationSimilarities(ctx, embedding, ids)
	if err != nil {
		return nil, helper.NewError("select relation similarities", err)
	}

	ranked := make([]model.RankedPath, len(candidates))
	for i, path := range candidates {
		ranked[i] = model.RankedPath{Path: path.Clone(), Score: meanSimilarity(path, similarities)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked, nil
}

func meanSimilarity(path model.Path, similarities map[string]float64) float64 {
	if len(path) == 0 {
		return 0
	}

	var sum float64
	for _, relation := range path {
		sum += similarities[relation]
	}
	return sum / float64(len(path))
}
