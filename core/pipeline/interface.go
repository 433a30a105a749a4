package pipeline

import (
	"context"
	"fmt"

	"github.com/siherrmann/kgdial/model"
)

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(text string) ([]float32, error)

// MentionExtractFunc finds entity mentions in an utterance
type MentionExtractFunc func(text string) ([]Mention, error)

// GenerateFunc continues a prompt and returns only the newly generated text
type GenerateFunc func(ctx context.Context, prompt string, params GenerationParams) (string, error)

// Mention is a span of an utterance recognized as named entity
type Mention struct {
	Text  string
	Label string // Entity class without BIO prefix (PER, LOC, ORG, MISC)
	Score float64
	Start int
	End   int
}

// GenerationParams are the decoding settings passed to a GenerateFunc.
// The hugot backend of DefaultGenerator decodes with the sampling settings
// bundled with the model and only honors MaxLength. The remaining fields
// are for backends set through SetGenerator.
type GenerationParams struct {
	MaxLength         int
	Temperature       float64
	TopK              int
	TopP              float64
	NoRepeatNgramSize int
	DoSample          bool
}

// GenerationParamsFromConfig takes the decoding settings of a generator config
func GenerationParamsFromConfig(config model.GeneratorConfig) GenerationParams {
	return GenerationParams{
		MaxLength:         config.MaxLength,
		Temperature:       config.Temperature,
		TopK:              config.TopK,
		TopP:              config.TopP,
		NoRepeatNgramSize: config.NoRepeatNgramSize,
		DoSample:          config.DoSample,
	}
}

// Pipeline bundles the model backed functions used around the ranker
type Pipeline struct {
	Embedder         EmbedFunc
	MentionExtractor MentionExtractFunc // Optional
	Generator        GenerateFunc       // Optional
}

// NewPipeline creates a new processing pipeline
func NewPipeline(embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Embedder: embedder,
	}
}

// SetMentionExtractor sets the mention extraction function
func (p *Pipeline) SetMentionExtractor(extractor MentionExtractFunc) {
	p.MentionExtractor = extractor
}

// SetGenerator sets the text generation function
func (p *Pipeline) SetGenerator(generator GenerateFunc) {
	p.Generator = generator
}

// EmbedRelations fills the embedding of every relation from its label.
// Relations without label are embedded by their id.
func (p *Pipeline) EmbedRelations(relations []*model.Relation) error {
	if p.Embedder == nil {
		return fmt.Errorf("pipeline has no embedder")
	}

	for _, relation := range relations {
		text := relation.Label
		if text == "" {
			text = relation.ID
		}

		embedding, err := p.Embedder(text)
		if err != nil {
			return fmt.Errorf("failed to embed relation %s: %w", relation.ID, err)
		}
		relation.Embedding = embedding
	}

	return nil
}
