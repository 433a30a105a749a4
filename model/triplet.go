package model

import "strings"

// Triplet is one materialized hop (subject, relation, object) of a retrieved path
type Triplet struct {
	Subject       string `json:"subject"`
	SubjectLabel  string `json:"subject_label,omitempty"`
	Relation      string `json:"relation"`
	RelationLabel string `json:"relation_label,omitempty"`
	Object        string `json:"object"`
	ObjectLabel   string `json:"object_label,omitempty"`

	// Text is a pre-rendered form as returned by remote graphs
	Text string `json:"text,omitempty"`
}

// String renders the triplet as generator input, preferring labels over ids
func (t Triplet) String() string {
	if t.Text != "" {
		return t.Text
	}
	return strings.Join([]string{
		firstNonEmpty(t.SubjectLabel, t.Subject),
		firstNonEmpty(t.RelationLabel, t.Relation),
		firstNonEmpty(t.ObjectLabel, t.Object),
	}, " ")
}

// RetrievedPath is a candidate path confirmed in the graph for a specific entity.
// Relations is the relation sequence actually traversed.
type RetrievedPath struct {
	Triplets  []Triplet `json:"triplets"`
	Relations Path      `json:"relations"`
}

// Texts returns the triplets rendered for the utterance generator
func (r RetrievedPath) Texts() []string {
	texts := make([]string, len(r.Triplets))
	for i, t := range r.Triplets {
		texts[i] = t.String()
	}
	return texts
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
