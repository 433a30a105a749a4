package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/kgdial"
	"github.com/siherrmann/kgdial/helper"
	"github.com/siherrmann/kgdial/model"
	"github.com/spf13/cobra"
)

var (
	typePathsFile   string
	typeGroupsFile  string
	relFreqFile     string
	wikiParserURL   string
	generatorModel  string
	usePathStat     bool
	useAPIRequester bool
	maxLogFreq      float64
	confThres       float64
	loadModels      bool
)

var rootCmd = &cobra.Command{
	Use:   "kgdial",
	Short: "Knowledge grounded dialog path ranking and generation",
	Long: `kgdial selects the knowledge graph path that grounds a reply to an
utterance and generates the reply from it.

Settings are read from the environment (and a .env file), flags override them.

Examples:
  kgdial load graph.json --rel-freq-out data/rel_freq.json
  kgdial rank "Where was Douglas Adams born?" --entity Q42 --use-path-stat
  kgdial generate "Where was he born?" --triplet "Douglas Adams place of birth Cambridge" --confidence 0.7
  kgdial serve --addr :8080`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&typePathsFile, "type-paths", "", "Type to scored paths table (KGDIAL_TYPE_PATHS_FILE)")
	flags.StringVar(&typeGroupsFile, "type-groups", "", "Type to related types table (KGDIAL_TYPE_GROUPS_FILE)")
	flags.StringVar(&relFreqFile, "rel-freq", "", "Relation frequency table (KGDIAL_REL_FREQ_FILE)")
	flags.StringVar(&wikiParserURL, "wiki-parser-url", "", "Use a remote wiki parser instead of the local graph (KGDIAL_WIKI_PARSER_URL)")
	flags.StringVar(&generatorModel, "generator-model", "", "Local onnx text generation model (KGDIAL_GENERATOR_MODEL)")
	flags.BoolVar(&usePathStat, "use-path-stat", false, "Order candidate paths by table score (KGDIAL_USE_PATH_STAT)")
	flags.BoolVar(&useAPIRequester, "use-api-requester", false, "Unwrap batched wiki parser results (KGDIAL_USE_API_REQUESTER)")
	flags.Float64Var(&maxLogFreq, "max-log-freq", 0, "Confidence normalization divisor (KGDIAL_MAX_LOG_FREQ)")
	flags.Float64Var(&confThres, "conf-thres", 0, "Minimum confidence to generate a reply (KGDIAL_CONF_THRES)")
	flags.BoolVar(&loadModels, "models", true, "Load the embedding and entity recognition models")
}

// loadConfig reads the environment and applies the flags that were set
func loadConfig(cmd *cobra.Command, logger *slog.Logger) (kgdial.Config, error) {
	helper.LoadEnv(logger)
	config, err := kgdial.NewConfigFromEnv()
	if err != nil {
		return config, err
	}

	flags := cmd.Flags()
	if flags.Changed("type-paths") {
		config.Tables.TypePaths = typePathsFile
	}
	if flags.Changed("type-groups") {
		config.Tables.TypeGroups = typeGroupsFile
	}
	if flags.Changed("rel-freq") {
		config.Tables.RelFreq = relFreqFile
	}
	if flags.Changed("wiki-parser-url") {
		config.WikiParserURL = wikiParserURL
	}
	if flags.Changed("generator-model") {
		config.GeneratorModel = generatorModel
	}
	if flags.Changed("use-path-stat") {
		config.Ranker.UsePathStat = usePathStat
	}
	if flags.Changed("use-api-requester") {
		config.Ranker.UseAPIRequester = useAPIRequester
	}
	if flags.Changed("max-log-freq") {
		config.Ranker.MaxLogFreq = maxLogFreq
	}
	if flags.Changed("conf-thres") {
		config.Generator.ConfThres = confThres
	}

	return config, config.Validate()
}

// openDialog connects the dialog and loads the default pipeline if requested.
// Without tables they are read from the configured files.
func openDialog(config kgdial.Config, tables *model.Tables) (*kgdial.Dialog, error) {
	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, fmt.Errorf("failed to read database configuration: %w", err)
	}

	if tables == nil {
		tables, err = model.LoadTables(config.Tables)
		if err != nil {
			return nil, fmt.Errorf("failed to load tables: %w", err)
		}
	}

	d, err := kgdial.NewDialogWithTables(dbConfig, config, tables)
	if err != nil {
		return nil, err
	}

	if loadModels {
		err = d.UseDefaultPipeline()
		if err != nil {
			d.Close()
			return nil, err
		}
	}

	return d, nil
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
