package kgdial

import (
	"errors"

	"github.com/siherrmann/kgdial/core/graph"
	"github.com/siherrmann/kgdial/core/pipeline"
	"github.com/siherrmann/kgdial/helper"
	"github.com/siherrmann/kgdial/model"
)

// Config bundles the settings of all dialog components
type Config struct {
	Ranker    model.RankerConfig    `json:"ranker"`
	Generator model.GeneratorConfig `json:"generator"`
	Graph     graph.ServiceConfig   `json:"graph"`
	Tables    model.TableFiles      `json:"tables"`

	// Use the wiki parser API at this url instead of the local triple store
	WikiParserURL string `json:"wiki_parser_url"`
	// Local onnx text generation model, generation is disabled without it
	GeneratorModel string `json:"generator_model"`
	// Dimension of the relation label embeddings
	EmbeddingDim int `json:"embedding_dim"`

	// Link entities from the utterance when a dialog item has none
	LinkEntities        bool `json:"link_entities"`
	MaxEntityCandidates int  `json:"max_entity_candidates"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Ranker:    model.DefaultRankerConfig(),
		Generator: model.DefaultGeneratorConfig(),
		Graph:     graph.DefaultServiceConfig(),
		Tables: model.TableFiles{
			TypePaths:  "data/type_paths.json",
			TypeGroups: "data/type_groups.json",
			RelFreq:    "data/rel_freq.json",
		},
		EmbeddingDim:        pipeline.EmbeddingDim,
		LinkEntities:        true,
		MaxEntityCandidates: 3,
	}
}

// NewConfigFromEnv reads the KGDIAL_* variables on top of DefaultConfig.
// Malformed values and invalid settings return an error.
func NewConfigFromEnv() (Config, error) {
	config := DefaultConfig()
	var errs []error
	setFloat := func(key string, target *float64) {
		v, err := helper.GetEnvFloat(key, *target)
		errs = append(errs, err)
		*target = v
	}
	setInt := func(key string, target *int) {
		v, err := helper.GetEnvInt(key, *target)
		errs = append(errs, err)
		*target = v
	}
	setBool := func(key string, target *bool) {
		v, err := helper.GetEnvBool(key, *target)
		errs = append(errs, err)
		*target = v
	}

	setFloat("KGDIAL_MAX_LOG_FREQ", &config.Ranker.MaxLogFreq)
	setBool("KGDIAL_USE_API_REQUESTER", &config.Ranker.UseAPIRequester)
	setBool("KGDIAL_USE_PATH_STAT", &config.Ranker.UsePathStat)
	setInt("KGDIAL_PARALLELISM", &config.Ranker.Parallelism)

	setFloat("KGDIAL_CONF_THRES", &config.Generator.ConfThres)
	setInt("KGDIAL_MAX_LENGTH", &config.Generator.MaxLength)

	config.Tables.TypePaths = helper.GetEnvString("KGDIAL_TYPE_PATHS_FILE", config.Tables.TypePaths)
	config.Tables.TypeGroups = helper.GetEnvString("KGDIAL_TYPE_GROUPS_FILE", config.Tables.TypeGroups)
	config.Tables.RelFreq = helper.GetEnvString("KGDIAL_REL_FREQ_FILE", config.Tables.RelFreq)

	config.WikiParserURL = helper.GetEnv("KGDIAL_WIKI_PARSER_URL")
	config.GeneratorModel = helper.GetEnv("KGDIAL_GENERATOR_MODEL")
	setBool("KGDIAL_LINK_ENTITIES", &config.LinkEntities)

	errs = append(errs, config.Validate())
	if err := errors.Join(errs...); err != nil {
		return config, helper.NewError("config from env", err)
	}

	return config, nil
}

// Validate checks the ranker and generator settings
func (c Config) Validate() error {
	return errors.Join(c.Ranker.Validate(), c.Generator.Validate())
}
