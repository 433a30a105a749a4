package retrieval

import (
	"context"

	"github.com/siherrmann/kgdial/model"
)

// Strategy orders candidate paths for retrieval, best first
type Strategy interface {
	TopPaths(ctx context.Context, utterance string, candidates *model.CandidateSet) ([]model.Path, error)
}

// RelevanceRanker scores candidate paths against an utterance.
// The result is sorted by descending relevance.
type RelevanceRanker interface {
	RankPaths(ctx context.Context, utterance string, candidates []model.Path) ([]model.RankedPath, error)
}

// StatisticStrategy orders candidates by their precomputed table score
type StatisticStrategy struct{}

// NewStatisticStrategy creates a new statistic strategy
func NewStatisticStrategy() *StatisticStrategy {
	return &StatisticStrategy{}
}

// TopPaths returns all candidates by descending table score
func (s *StatisticStrategy) TopPaths(ctx context.Context, utterance string, candidates *model.CandidateSet) ([]model.Path, error) {
	return candidates.SortedByScore(), nil
}

// RankingStrategy orders candidates with a relevance ranker
type RankingStrategy struct {
	ranker RelevanceRanker
}

// NewRankingStrategy creates a new ranking strategy
func NewRankingStrategy(ranker RelevanceRanker) *RankingStrategy {
	return &RankingStrategy{ranker: ranker}
}

// TopPaths returns the ranker's order. Paths the ranker returns that were
// not candidates, and repeated paths, are dropped.
func (s *RankingStrategy) TopPaths(ctx context.Context, utterance string, candidates *model.CandidateSet) ([]model.Path, error) {
	ranked, err := s.ranker.RankPaths(ctx, utterance, candidates.SortedByKey())
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(ranked))
	paths := make([]model.Path, 0, len(ranked))
	for _, r := range ranked {
		key := r.Path.Key()
		if seen[key] || !candidates.Contains(r.Path) {
			continue
		}
		seen[key] = true
		paths = append(paths, r.Path.Clone())
	}

	return paths, nil
}
