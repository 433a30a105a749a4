package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/siherrmann/kgdial/core/pipeline"
	"github.com/siherrmann/kgdial/helper"
	"github.com/siherrmann/kgdial/model"
)

// EntitySearcher finds stored entities by label
type EntitySearcher interface {
	SelectEntitiesByLabel(ctx context.Context, label string, limit int) ([]*model.Entity, error)
}

// EntityLinker links the mentions of an utterance to graph entities
type EntityLinker struct {
	extract       pipeline.MentionExtractFunc
	entities      EntitySearcher
	maxCandidates int
	logger        *slog.Logger
}

// NewEntityLinker creates a new entity linker. Every mention links to at
// most maxCandidates entities.
func NewEntityLinker(extract pipeline.MentionExtractFunc, entities EntitySearcher, maxCandidates int, logger *slog.Logger) (*EntityLinker, error) {
	if extract == nil {
		return nil, helper.NewError("mention extractor validation", fmt.Errorf("mention extractor is nil"))
	}
	if entities == nil {
		return nil, helper.NewError("entity searcher validation", fmt.Errorf("entity searcher is nil"))
	}
	if maxCandidates < 1 {
		maxCandidates = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &EntityLinker{
		extract:       extract,
		entities:      entities,
		maxCandidates: maxCandidates,
		logger:        logger,
	}, nil
}

// Link returns one entity reference per mention that matches a stored
// entity, in mention order
func (l *EntityLinker) Link(ctx context.Context, utterance string) ([]model.EntityRef, error) {
	mentions, err := l.extract(utterance)
	if err != nil {
		return nil, helper.NewError("extract mentions", err)
	}

	refs := []model.EntityRef{}
	for _, mention := range mentions {
		found, err := l.entities.SelectEntitiesByLabel(ctx, mention.Text, l.maxCandidates)
		if err != nil {
			return nil, helper.NewError("select entities by label", err)
		}
		if len(found) == 0 {
			l.logger.Debug("mention without entity", slog.String("mention", mention.Text), slog.String("label", mention.Label))
			continue
		}

		ids := make([]string, len(found))
		for i, entity := range found {
			ids[i] = entity.ID
		}
		refs = append(refs, model.NewEntityRef(ids...))
	}

	return refs, nil
}
