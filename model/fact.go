package model

import (
	"time"

	"github.com/google/uuid"
)

// Fact is a stored (subject, relation, object) statement of the graph
type Fact struct {
	ID        uuid.UUID `json:"id"`
	Subject   string    `json:"subject"`
	Relation  string    `json:"relation"`
	Object    string    `json:"object"`
	CreatedAt time.Time `json:"created_at"`
}
