package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entity is a knowledge graph entity (Wikidata style id such as "Q42")
type Entity struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EntityRef is one linked entity as sent by upstream entity linkers.
// Linkers emit either a single id or a list of candidate ids for a mention;
// both JSON forms decode into Candidates.
type EntityRef struct {
	Candidates []string
}

// NewEntityRef creates a reference from one or more candidate ids
func NewEntityRef(ids ...string) EntityRef {
	return EntityRef{Candidates: ids}
}

// EntityRefs converts plain ids into references
func EntityRefs(ids ...string) []EntityRef {
	refs := make([]EntityRef, len(ids))
	for i, id := range ids {
		refs[i] = NewEntityRef(id)
	}
	return refs
}

// Seed returns the first non-empty candidate id, or false if there is none.
// Empty ids are placeholders without a graph node.
func (e EntityRef) Seed() (string, bool) {
	for _, id := range e.Candidates {
		if id != "" {
			return id, true
		}
	}
	return "", false
}

// UnmarshalJSON accepts `"Q1"` as well as `["Q1", "Q2"]`
func (e *EntityRef) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		e.Candidates = []string{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("entity must be a string or a list of strings: %w", err)
	}
	e.Candidates = list
	return nil
}

// MarshalJSON writes a single candidate as plain string
func (e EntityRef) MarshalJSON() ([]byte, error) {
	if len(e.Candidates) == 1 {
		return json.Marshal(e.Candidates[0])
	}
	if e.Candidates == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(e.Candidates)
}
