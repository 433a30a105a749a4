package model

import "sort"

// CandidateSet is a set of unique paths collected across entity types.
// Insertion order is kept; a path added twice keeps its highest score.
type CandidateSet struct {
	index map[string]int
	paths []ScoredPath
}

// NewCandidateSet creates an empty CandidateSet
func NewCandidateSet() *CandidateSet {
	return &CandidateSet{
		index: make(map[string]int),
	}
}

// Add inserts the path and reports whether it was new
func (c *CandidateSet) Add(candidate ScoredPath) bool {
	if len(candidate.Path) == 0 {
		return false
	}

	key := candidate.Path.Key()
	if i, exists := c.index[key]; exists {
		if candidate.Score > c.paths[i].Score {
			c.paths[i].Score = candidate.Score
		}
		return false
	}

	c.index[key] = len(c.paths)
	c.paths = append(c.paths, ScoredPath{Path: candidate.Path.Clone(), Score: candidate.Score})
	return true
}

// Contains reports whether the path is in the set
func (c *CandidateSet) Contains(path Path) bool {
	_, exists := c.index[path.Key()]
	return exists
}

// Len returns the number of unique paths
func (c *CandidateSet) Len() int {
	return len(c.paths)
}

// IsEmpty reports whether no path was added
func (c *CandidateSet) IsEmpty() bool {
	return len(c.paths) == 0
}

// SortedByScore returns the paths by descending score.
// Equal scores are ordered by path key so the result is deterministic.
func (c *CandidateSet) SortedByScore() []Path {
	sorted := make([]ScoredPath, len(c.paths))
	copy(sorted, c.paths)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Path.Key() < sorted[j].Path.Key()
	})

	return pathsOf(sorted)
}

// SortedByKey returns the paths without score information, ordered by key
func (c *CandidateSet) SortedByKey() []Path {
	sorted := make([]ScoredPath, len(c.paths))
	copy(sorted, c.paths)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Path.Key() < sorted[j].Path.Key()
	})

	return pathsOf(sorted)
}

func pathsOf(scored []ScoredPath) []Path {
	paths := make([]Path, len(scored))
	for i, s := range scored {
		paths[i] = s.Path.Clone()
	}
	return paths
}
