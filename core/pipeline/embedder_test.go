package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func TestDefaultEmbedder(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping DefaultEmbedder test in short mode (requires model download)")
	}

	embedder, err := DefaultEmbedder()
	require.NoError(t, err)
	require.NotNil(t, embedder)

	t.Run("Embedding has the model dimension", func(t *testing.T) {
		embedding, err := embedder("place of birth")
		require.NoError(t, err)
		assert.Len(t, embedding, EmbeddingDim)
	})

	t.Run("Same text produces same embedding", func(t *testing.T) {
		embedding1, err := embedder("country of citizenship")
		require.NoError(t, err)
		embedding2, err := embedder("country of citizenship")
		require.NoError(t, err)

		assert.InDelta(t, 1.0, cosineSimilarity(embedding1, embedding2), 1e-4)
	})

	t.Run("Utterances are closer to matching relation labels", func(t *testing.T) {
		utterance, err := embedder("Where was he born?")
		require.NoError(t, err)
		birthPlace, err := embedder("place of birth")
		require.NoError(t, err)
		population, err := embedder("population")
		require.NoError(t, err)

		assert.Greater(t, cosineSimilarity(utterance, birthPlace), cosineSimilarity(utterance, population))
	})

	t.Run("Handle special characters", func(t *testing.T) {
		embedding, err := embedder("Wer hat 'Faust' geschrieben? 🎭")
		require.NoError(t, err)
		assert.Len(t, embedding, EmbeddingDim)
	})
}
