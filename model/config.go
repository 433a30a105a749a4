package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned by Validate for unusable settings
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrBatchMismatch is returned when parallel batch inputs differ in length
var ErrBatchMismatch = errors.New("batch length mismatch")

// RankerConfig represents the configuration of the dialog path ranker
type RankerConfig struct {
	// Confidence normalization divisor for log relation frequencies
	MaxLogFreq float64 `json:"max_log_freq"`
	// Discount applied to the normalized confidence
	ConfidenceDiscount float64 `json:"confidence_discount"`
	// Confidence emitted for items without any seed entity
	NoEntityConfidence float64 `json:"no_entity_confidence"`

	// The graph service wraps every result in one extra batch list
	UseAPIRequester bool `json:"use_api_requester"`
	// Order candidates by their table statistic instead of the relevance ranker
	UsePathStat bool `json:"use_path_stat"`

	// Maximum number of batch items ranked concurrently
	Parallelism int `json:"parallelism"`
}

// DefaultRankerConfig returns the default ranker configuration
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{
		MaxLogFreq:         8.0,
		ConfidenceDiscount: 0.9,
		NoEntityConfidence: 0.4,
		UseAPIRequester:    false,
		UsePathStat:        false,
		Parallelism:        4,
	}
}

// Validate checks the configuration. NaN and infinite values are rejected.
func (c RankerConfig) Validate() error {
	if !(c.MaxLogFreq > 0) || math.IsInf(c.MaxLogFreq, 1) {
		return fmt.Errorf("%w: max_log_freq must be positive, got %v", ErrInvalidConfig, c.MaxLogFreq)
	}
	if !inUnitInterval(c.ConfidenceDiscount) {
		return fmt.Errorf("%w: confidence_discount must be in [0, 1], got %v", ErrInvalidConfig, c.ConfidenceDiscount)
	}
	if !inUnitInterval(c.NoEntityConfidence) {
		return fmt.Errorf("%w: no_entity_confidence must be in [0, 1], got %v", ErrInvalidConfig, c.NoEntityConfidence)
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("%w: parallelism must be at least 1, got %d", ErrInvalidConfig, c.Parallelism)
	}
	return nil
}

// GeneratorConfig represents the configuration of the utterance generator
type GeneratorConfig struct {
	// Minimum confidence (exclusive) to attempt generation
	ConfThres float64 `json:"conf_thres"`

	// Decoding parameters handed to the generation backend
	MaxLength         int     `json:"max_length"`
	Temperature       float64 `json:"temperature"`
	TopK              int     `json:"top_k"`
	TopP              float64 `json:"top_p"`
	NoRepeatNgramSize int     `json:"no_repeat_ngram_size"`
	DoSample          bool    `json:"do_sample"`

	// Prompt tokens
	SepToken string `json:"sep_token"`
	EOSToken string `json:"eos_token"`
}

// DefaultGeneratorConfig returns the default generator configuration
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		ConfThres:         0.3,
		MaxLength:         200,
		Temperature:       0.8,
		TopK:              100,
		TopP:              0.7,
		NoRepeatNgramSize: 3,
		DoSample:          true,
		SepToken:          "<SEP>",
		EOSToken:          "<|endoftext|>",
	}
}

// Validate checks the configuration
func (c GeneratorConfig) Validate() error {
	if !inUnitInterval(c.ConfThres) {
		return fmt.Errorf("%w: conf_thres must be in [0, 1], got %v", ErrInvalidConfig, c.ConfThres)
	}
	if c.MaxLength < 1 {
		return fmt.Errorf("%w: max_length must be at least 1, got %d", ErrInvalidConfig, c.MaxLength)
	}
	if !(c.Temperature > 0) || math.IsInf(c.Temperature, 1) {
		return fmt.Errorf("%w: temperature must be positive, got %v", ErrInvalidConfig, c.Temperature)
	}
	if !(c.TopP > 0 && c.TopP <= 1) {
		return fmt.Errorf("%w: top_p must be in (0, 1], got %v", ErrInvalidConfig, c.TopP)
	}
	if c.TopK < 0 || c.NoRepeatNgramSize < 0 {
		return fmt.Errorf("%w: top_k and no_repeat_ngram_size must not be negative", ErrInvalidConfig)
	}
	return nil
}

// inUnitInterval is false for NaN
func inUnitInterval(v float64) bool {
	return v >= 0 && v <= 1
}
