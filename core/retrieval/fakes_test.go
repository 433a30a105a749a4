package retrieval

import (
	"context"
	"sort"
	"sync"

	"github.com/siherrmann/kgdial/model"
)

// fakeGraph is an in-memory knowledge graph for testing
type fakeGraph struct {
	mu sync.Mutex

	types      map[string][]string
	subclasses map[string][]string
	paths      map[string]map[string][]model.Triplet

	typesErr    error
	objectsErr  error
	retrieveErr error

	findObjectsCalls [][]string
	retrieveCalls    [][]model.Path
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		types:      map[string][]string{},
		subclasses: map[string][]string{},
		paths:      map[string]map[string][]model.Triplet{},
	}
}

// confirm makes path retrievable for entity
func (f *fakeGraph) confirm(entity string, path model.Path) {
	if f.paths[entity] == nil {
		f.paths[entity] = map[string][]model.Triplet{}
	}
	triplets := make([]model.Triplet, len(path))
	node := entity
	for i, relation := range path {
		next := node + "." + relation
		triplets[i] = model.Triplet{Subject: node, Relation: relation, Object: next}
		node = next
	}
	f.paths[entity][path.Key()] = triplets
}

func (f *fakeGraph) FindTypes(ctx context.Context, entity string) ([]string, error) {
	if f.typesErr != nil {
		return nil, f.typesErr
	}
	return f.types[entity], nil
}

func (f *fakeGraph) FindObjects(ctx context.Context, subjects []string, relation string, dir model.Direction) ([][]string, error) {
	f.mu.Lock()
	f.findObjectsCalls = append(f.findObjectsCalls, append([]string(nil), subjects...))
	f.mu.Unlock()

	if f.objectsErr != nil {
		return nil, f.objectsErr
	}

	results := make([][]string, len(subjects))
	for i, subject := range subjects {
		results[i] = f.subclasses[subject]
	}
	return results, nil
}

func (f *fakeGraph) RetrievePaths(ctx context.Context, entity string, paths []model.Path) ([]model.RetrievedPath, error) {
	f.mu.Lock()
	f.retrieveCalls = append(f.retrieveCalls, paths)
	f.mu.Unlock()

	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}

	retrieved := []model.RetrievedPath{}
	for _, path := range paths {
		if triplets, ok := f.paths[entity][path.Key()]; ok {
			retrieved = append(retrieved, model.RetrievedPath{Triplets: triplets, Relations: path.Clone()})
		}
	}
	return retrieved, nil
}

// fakeRelevance scores paths from a fixed table
type fakeRelevance struct {
	mu     sync.Mutex
	scores map[string]float64
	extra  []model.RankedPath
	err    error
	calls  [][]model.Path
}

func (f *fakeRelevance) RankPaths(ctx context.Context, utterance string, candidates []model.Path) ([]model.RankedPath, error) {
	f.mu.Lock()
	f.calls = append(f.calls, candidates)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	ranked := make([]model.RankedPath, 0, len(candidates)+len(f.extra))
	for _, path := range candidates {
		ranked = append(ranked, model.RankedPath{Path: path, Score: f.scores[path.Key()]})
	}
	ranked = append(ranked, f.extra...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked, nil
}

// fakeFrequencies is a relation frequency lookup backed by a map
type fakeFrequencies map[string]float64

func (f fakeFrequencies) Frequency(relation string) (float64, bool) {
	v, ok := f[relation]
	return v, ok
}

// exampleTables holds one type with two scored paths
func exampleTables() *model.Tables {
	return model.NewTables(
		model.TypePathTable{
			"TypeA": {
				{Path: model.Path{"P31"}, Score: 0.9},
				{Path: model.Path{"P21"}, Score: 0.5},
			},
			"TypeC": {
				{Path: model.Path{"P19"}, Score: 0.7},
			},
		},
		model.TypeGroupTable{
			"ClassX": {"TypeB", "TypeC"},
			"ClassY": {"TypeD", "TypeE"},
		},
		model.RelationFrequencyTable{
			"P31": {100},
			"P21": {50},
			"P19": {1000},
			"P0":  {0},
		},
	)
}

func statisticConfig() model.RankerConfig {
	config := model.DefaultRankerConfig()
	config.UsePathStat = true
	return config
}
