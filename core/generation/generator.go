package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/siherrmann/kgdial/core/pipeline"
	"github.com/siherrmann/kgdial/helper"
	"github.com/siherrmann/kgdial/model"
)

// Generator produces a knowledge grounded reply for every dialog item
// whose ranking confidence passes the threshold
type Generator struct {
	generate pipeline.GenerateFunc
	config   model.GeneratorConfig
	params   pipeline.GenerationParams
	logger   *slog.Logger
}

// NewGenerator creates a new generator around a generation backend
func NewGenerator(generate pipeline.GenerateFunc, config model.GeneratorConfig, logger *slog.Logger) (*Generator, error) {
	if generate == nil {
		return nil, helper.NewError("generator validation", fmt.Errorf("generate function is nil"))
	}
	err := config.Validate()
	if err != nil {
		return nil, helper.NewError("config validation", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Initialized Generator", slog.Float64("conf_thres", config.ConfThres), slog.Int("max_length", config.MaxLength))

	return &Generator{
		generate: generate,
		config:   config,
		params:   pipeline.GenerationParamsFromConfig(config),
		logger:   logger,
	}, nil
}

// Generate returns one reply per item. Items with confidence at or below
// the threshold get an empty reply without calling the backend.
// The confidences are returned unchanged.
func (g *Generator) Generate(ctx context.Context, prevUtterances []string, triplets [][]string, confidences []float64) ([]string, []float64, error) {
	if len(prevUtterances) != len(triplets) || len(prevUtterances) != len(confidences) {
		return nil, nil, helper.NewError("generate", fmt.Errorf(
			"%w: %d utterances, %d triplet lists, %d confidences",
			model.ErrBatchMismatch, len(prevUtterances), len(triplets), len(confidences),
		))
	}

	start := time.Now()
	replies := make([]string, len(prevUtterances))
	for i, prev := range prevUtterances {
		if confidences[i] <= g.config.ConfThres {
			continue
		}

		prompt := g.BuildPrompt(triplets[i], prev)
		g.logger.Debug("generation prompt", slog.Int("item", i), slog.String("prompt", prompt))

		response, err := g.generate(ctx, prompt, g.params)
		if err != nil {
			return nil, nil, helper.NewError(fmt.Sprintf("generate item %d", i), err)
		}
		replies[i] = pipeline.TrimPromptEcho(prompt, response)
	}

	g.logger.Info("generation time", slog.Int("batch_size", len(prevUtterances)), slog.Duration("time", time.Since(start)))

	return replies, confidences, nil
}

// BuildPrompt joins the triplets, the separator token, the previous
// utterance and the end of text token. Without triplets the prompt is
// the previous utterance and the end of text token.
func (g *Generator) BuildPrompt(triplets []string, prev string) string {
	if len(triplets) == 0 {
		return prev + g.config.EOSToken
	}
	return strings.Join(triplets, " ") + " " + g.config.SepToken + " " + prev + g.config.EOSToken
}
