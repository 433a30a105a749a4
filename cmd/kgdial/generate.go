package main

import (
	"log/slog"
	"os"

	"github.com/siherrmann/kgdial/helper"
	"github.com/spf13/cobra"
)

var (
	generateTriplets   []string
	generateConfidence float64
)

var generateCmd = &cobra.Command{
	Use:   "generate <previous utterance>",
	Short: "Generate a reply from knowledge triplets",
	Long: `Generate a reply to the previous utterance grounded in the given triplets.
Requires --generator-model or KGDIAL_GENERATOR_MODEL.

Examples:
  kgdial generate "Where was he born?" --triplet "Douglas Adams place of birth Cambridge" --confidence 0.7`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringArrayVar(&generateTriplets, "triplet", nil, "Rendered triplet, repeatable")
	generateCmd.Flags().Float64Var(&generateConfidence, "confidence", 1.0, "Ranking confidence of the triplets")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger := helper.NewLogger(os.Stderr, slog.LevelInfo)
	config, err := loadConfig(cmd, logger)
	if err != nil {
		return err
	}

	d, err := openDialog(config, nil)
	if err != nil {
		return err
	}
	defer d.Close()

	replies, confidences, err := d.Generate(cmd.Context(), []string{args[0]}, [][]string{generateTriplets}, []float64{generateConfidence})
	if err != nil {
		return err
	}

	return printJSON(map[string]interface{}{
		"reply":      replies[0],
		"confidence": confidences[0],
	})
}
