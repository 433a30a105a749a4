package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/siherrmann/kgdial/core/pipeline"
	"github.com/siherrmann/kgdial/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	byLabel map[string][]string
	err     error
	limits  []int
}

func (f *fakeSearcher) SelectEntitiesByLabel(ctx context.Context, label string, limit int) ([]*model.Entity, error) {
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	entities := []*model.Entity{}
	for _, id := range f.byLabel[strings.ToLower(label)] {
		if len(entities) == limit {
			break
		}
		entities = append(entities, &model.Entity{ID: id, Label: label})
	}
	return entities, nil
}

func mentionsOf(words ...string) pipeline.MentionExtractFunc {
	return func(text string) ([]pipeline.Mention, error) {
		mentions := []pipeline.Mention{}
		for _, word := range words {
			start := strings.Index(text, word)
			if start < 0 {
				continue
			}
			mentions = append(mentions, pipeline.Mention{Text: word, Label: "PER", Score: 0.99, Start: start, End: start + len(word)})
		}
		return mentions, nil
	}
}

func TestNewEntityLinker(t *testing.T) {
	t.Run("Valid call NewEntityLinker", func(t *testing.T) {
		linker, err := NewEntityLinker(mentionsOf(), &fakeSearcher{}, 0, nil)
		assert.NoError(t, err)
		require.NotNil(t, linker)
		assert.Equal(t, 1, linker.maxCandidates, "Expected max candidates to be at least 1")
	})

	t.Run("Invalid call NewEntityLinker with nil extractor", func(t *testing.T) {
		_, err := NewEntityLinker(nil, &fakeSearcher{}, 3, nil)
		assert.Error(t, err)
	})

	t.Run("Invalid call NewEntityLinker with nil searcher", func(t *testing.T) {
		_, err := NewEntityLinker(mentionsOf(), nil, 3, nil)
		assert.Error(t, err)
	})
}

func TestEntityLinkerLink(t *testing.T) {
	ctx := context.Background()
	searcher := &fakeSearcher{byLabel: map[string][]string{
		"douglas adams": {"Q42"},
		"cambridge":     {"Q350", "Q49108", "Q1"},
	}}

	t.Run("Links mentions in order", func(t *testing.T) {
		linker, err := NewEntityLinker(mentionsOf("Douglas Adams", "Cambridge"), searcher, 2, nil)
		require.NoError(t, err)

		refs, err := linker.Link(ctx, "Was Douglas Adams born in Cambridge?")
		require.NoError(t, err)
		assert.Equal(t, []model.EntityRef{
			model.NewEntityRef("Q42"),
			model.NewEntityRef("Q350", "Q49108"),
		}, refs)
	})

	t.Run("Mentions without entity are skipped", func(t *testing.T) {
		linker, err := NewEntityLinker(mentionsOf("Arthur Dent", "Cambridge"), searcher, 1, nil)
		require.NoError(t, err)

		refs, err := linker.Link(ctx, "Arthur Dent visited Cambridge")
		require.NoError(t, err)
		assert.Equal(t, model.EntityRefs("Q350"), refs)
	})

	t.Run("No mentions", func(t *testing.T) {
		linker, err := NewEntityLinker(mentionsOf(), searcher, 1, nil)
		require.NoError(t, err)

		refs, err := linker.Link(ctx, "hello there")
		require.NoError(t, err)
		assert.NotNil(t, refs)
		assert.Empty(t, refs)
	})

	t.Run("Extractor errors propagate", func(t *testing.T) {
		failing := func(text string) ([]pipeline.Mention, error) { return nil, errors.New("tokenizer missing") }
		linker, err := NewEntityLinker(failing, searcher, 1, nil)
		require.NoError(t, err)

		_, err = linker.Link(ctx, "anything")
		assert.Error(t, err)
	})

	t.Run("Searcher errors propagate", func(t *testing.T) {
		linker, err := NewEntityLinker(mentionsOf("Cambridge"), &fakeSearcher{err: errors.New("db down")}, 1, nil)
		require.NoError(t, err)

		_, err = linker.Link(ctx, "Cambridge")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
	})
}
