package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

// DefaultGenerator creates a text generator from a local onnx generation model.
// maxTokens bounds the tokens hugot generates per prompt. Of the call
// params only MaxLength is used, it caps the number of returned words.
func DefaultGenerator(modelPath string, maxTokens int) (GenerateFunc, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("generator model path is empty")
	}
	if maxTokens < 1 {
		return nil, fmt.Errorf("max tokens must be at least 1, got %d", maxTokens)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TextGenerationConfig{
		ModelPath: modelPath,
		Name:      "generator-pipeline",
		Options: []hugot.TextGenerationOption{
			pipelines.WithMaxLength(maxTokens),
		},
	}
	generationPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create generation pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create generation pipeline: %w", err)
	}

	return func(ctx context.Context, prompt string, params GenerationParams) (string, error) {
		output, err := generationPipeline.RunPipeline(ctx, []string{prompt})
		if err != nil {
			return "", fmt.Errorf("failed to generate: %w", err)
		}

		if len(output.Responses) == 0 {
			return "", nil
		}

		generated := TrimPromptEcho(prompt, output.Responses[0])
		return TruncateWords(generated, params.MaxLength), nil
	}, nil
}

// TrimPromptEcho removes the prompt from the start of a response so only
// newly generated text remains
func TrimPromptEcho(prompt string, response string) string {
	response = strings.TrimPrefix(response, prompt)
	return strings.TrimSpace(response)
}

// TruncateWords keeps at most max whitespace separated words.
// A max below 1 keeps everything.
func TruncateWords(text string, max int) string {
	if max < 1 {
		return text
	}

	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	return strings.Join(words[:max], " ")
}
