package main

import (
	"log/slog"
	"os"

	"github.com/siherrmann/kgdial/helper"
	"github.com/siherrmann/kgdial/model"
	"github.com/spf13/cobra"
)

var (
	rankEntities []string
	rankLink     bool
)

var rankCmd = &cobra.Command{
	Use:   "rank <utterance>",
	Short: "Select the grounding path for an utterance",
	Long: `Select the grounding path for an utterance and print the rank result as JSON.

Every --entity is one linked entity, the first one seeds the search.
Without --entity the entities are linked from the utterance if --link is set.

Examples:
  kgdial rank "Where was Douglas Adams born?" --entity Q42
  kgdial rank "Where was Douglas Adams born?" --link`,
	Args: cobra.ExactArgs(1),
	RunE: runRank,
}

func init() {
	rankCmd.Flags().StringSliceVar(&rankEntities, "entity", nil, "Linked entity id, repeatable")
	rankCmd.Flags().BoolVar(&rankLink, "link", false, "Link entities from the utterance")
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
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

	ctx := cmd.Context()
	entities := model.EntityRefs(rankEntities...)
	if len(entities) == 0 && rankLink {
		entities, err = d.LinkEntities(ctx, args[0])
		if err != nil {
			return err
		}
	}

	results, err := d.Rank(ctx, []string{args[0]}, [][]model.EntityRef{entities})
	if err != nil {
		return err
	}

	return printJSON(results[0])
}
