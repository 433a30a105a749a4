package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTriplet(t *testing.T) {
	t.Run("String prefers labels", func(t *testing.T) {
		triplet := Triplet{
			Subject: "Q42", SubjectLabel: "Douglas Adams",
			Relation: "P106", RelationLabel: "occupation",
			Object: "Q36180", ObjectLabel: "writer",
		}
		assert.Equal(t, "Douglas Adams occupation writer", triplet.String())
	})

	t.Run("String falls back to ids", func(t *testing.T) {
		triplet := Triplet{Subject: "Q42", Relation: "P106", Object: "Q36180", ObjectLabel: "writer"}
		assert.Equal(t, "Q42 P106 writer", triplet.String())
	})

	t.Run("String uses pre-rendered text", func(t *testing.T) {
		triplet := Triplet{Subject: "Q42", Relation: "P106", Object: "Q36180", Text: "Douglas Adams occupation writer"}
		assert.Equal(t, "Douglas Adams occupation writer", triplet.String())
	})

	t.Run("Rank result texts follow triplet order", func(t *testing.T) {
		result := RankResult{Triplets: []Triplet{
			{Subject: "Q42", Relation: "P19", Object: "Q350"},
			{Subject: "Q350", Relation: "P17", Object: "Q145"},
		}}
		assert.Equal(t, []string{"Q42 P19 Q350", "Q350 P17 Q145"}, result.Texts())
	})

	t.Run("Empty rank result has empty but non nil path", func(t *testing.T) {
		result := EmptyRankResult(0.4, OutcomeNoSeedEntity)
		assert.NotNil(t, result.Triplets)
		assert.Empty(t, result.Triplets)
		assert.Empty(t, result.Relations)
		assert.Equal(t, 0.4, result.Confidence)
	})
}
