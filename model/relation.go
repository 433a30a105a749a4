package model

import "time"

// Wikidata relations used by the type lookup
const (
	RelationInstanceOf = "P31"
	RelationSubclassOf = "P279"
)

// Direction selects whether a relation is followed from subject to object
// or in reverse.
type Direction string

const (
	DirectionForward  Direction = "forw"
	DirectionBackward Direction = "backw"
)

// Relation is a graph predicate with an optional label embedding
type Relation struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Embedding []float32 `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Results
	Similarity float64 `json:"similarity,omitempty"`
}
