package pipeline

import (
	"fmt"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/kgdial/helper"
)

// MentionModel is the NER model used by DefaultMentionExtractor
const MentionModel = "KnightsAnalytics/distilbert-NER"

// DefaultMentionExtractor creates a mention extractor using a NER model
// Detects: PER, ORG, LOC, MISC mentions
func DefaultMentionExtractor() (MentionExtractFunc, error) {
	modelPath, err := helper.PrepareModel(MentionModel, "model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}),
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	return func(text string) ([]Mention, error) {
		if strings.TrimSpace(text) == "" {
			return []Mention{}, nil
		}

		result, err := nerPipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to run NER: %w", err)
		}

		mentions := []Mention{}
		if len(result.Entities) == 0 {
			return mentions, nil
		}

		for _, entity := range result.Entities[0] {
			word := strings.TrimSpace(entity.Word)
			if word == "" {
				continue
			}

			mentions = append(mentions, Mention{
				Text:  word,
				Label: normalizeEntityLabel(entity.Entity),
				Score: float64(entity.Score),
				Start: int(entity.Start),
				End:   int(entity.End),
			})
		}

		return mentions, nil
	}, nil
}

// normalizeEntityLabel removes B- and I- prefixes from NER labels
func normalizeEntityLabel(label string) string {
	if strings.HasPrefix(label, "B-") || strings.HasPrefix(label, "I-") {
		return label[2:]
	}
	return label
}
