package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// pathKeySeparator joins relation ids into a hashable key.
// Relation ids never contain control characters.
const pathKeySeparator = "\x1f"

// Path is an ordered sequence of relation ids (1 or more hops)
// describing a traversal from an entity to an answer.
type Path []string

// Key returns a comparable representation used for set semantics
func (p Path) Key() string {
	return strings.Join(p, pathKeySeparator)
}

// PathFromKey reverses Key
func PathFromKey(key string) Path {
	if key == "" {
		return Path{}
	}
	return Path(strings.Split(key, pathKeySeparator))
}

func (p Path) String() string {
	return strings.Join(p, " -> ")
}

// Equal reports whether both paths have the same hops in the same order
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that does not share the backing array
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	c := make(Path, len(p))
	copy(c, p)
	return c
}

// ScoredPath is a path with a precomputed relevance/frequency statistic.
// Its JSON form is the two element array `[["P19","P17"], 0.83]`.
type ScoredPath struct {
	Path  Path    `json:"path"`
	Score float64 `json:"score"`
}

// UnmarshalJSON decodes the `[path, score]` array form
func (s *ScoredPath) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("scored path must be a [path, score] array: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("scored path must have 2 elements, got %d", len(raw))
	}

	var path Path
	if err := json.Unmarshal(raw[0], &path); err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if len(path) == 0 {
		return fmt.Errorf("path must have at least one relation")
	}

	var score float64
	if err := json.Unmarshal(raw[1], &score); err != nil {
		return fmt.Errorf("invalid score: %w", err)
	}

	s.Path = path
	s.Score = score
	return nil
}

// MarshalJSON encodes the `[path, score]` array form
func (s ScoredPath) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{s.Path, s.Score})
}

// RankedPath is a candidate path scored by a relevance model for an utterance
type RankedPath struct {
	Path  Path    `json:"path"`
	Score float64 `json:"score"`
}
