package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/kgdial/helper"
	"github.com/siherrmann/kgdial/model"
	"github.com/spf13/cobra"
)

var relFreqOut string

// graphFile is the import format of the load command
type graphFile struct {
	Entities  []*model.Entity   `json:"entities"`
	Relations []*model.Relation `json:"relations"`
	Triples   []*model.Fact     `json:"triples"`
}

var loadCmd = &cobra.Command{
	Use:   "load <graph.json>",
	Short: "Load entities, relations and triples into the database",
	Long: `Load a graph file of the form

  {"entities": [{"id": "Q42", "label": "Douglas Adams"}],
   "relations": [{"id": "P19", "label": "place of birth"}],
   "triples": [{"subject": "Q42", "relation": "P19", "object": "Q350"}]}

Relation labels are embedded when the models are loaded.
With --rel-freq-out the stored triple counts are written as relation frequency table.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&relFreqOut, "rel-freq-out", "", "Write the relation frequency table to this file")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	logger := helper.NewLogger(os.Stderr, slog.LevelInfo)
	config, err := loadConfig(cmd, logger)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read graph file: %w", err)
	}
	var graph graphFile
	err = json.Unmarshal(content, &graph)
	if err != nil {
		return fmt.Errorf("failed to decode graph file: %w", err)
	}

	// The tables may not exist before the first load
	d, err := openDialog(config, model.NewTables(nil, nil, nil))
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	err = d.InsertGraph(ctx, graph.Entities, graph.Relations, graph.Triples)
	if err != nil {
		return err
	}

	frequencies, err := d.RelationFrequencies(ctx)
	if err != nil {
		return err
	}
	logger.Info("Relation frequencies", slog.Int("relations", len(frequencies)))

	if relFreqOut == "" {
		return nil
	}

	out, err := json.MarshalIndent(frequencies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode relation frequencies: %w", err)
	}
	err = os.WriteFile(relFreqOut, out, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write relation frequencies: %w", err)
	}
	logger.Info("Wrote relation frequency table", slog.String("file", relFreqOut))

	return nil
}
