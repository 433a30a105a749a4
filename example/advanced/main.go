package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/siherrmann/kgdial"
	"github.com/siherrmann/kgdial/helper"
	"github.com/siherrmann/kgdial/model"
)

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	tables := model.NewTables(
		model.TypePathTable{
			"Q5": {
				{Path: model.Path{"P19"}, Score: 0.8},
				{Path: model.Path{"P69"}, Score: 0.6},
				{Path: model.Path{"P800"}, Score: 0.5},
			},
		},
		model.TypeGroupTable{},
		model.RelationFrequencyTable{
			"P19":  {1000},
			"P69":  {400},
			"P800": {150},
		},
	)

	// Ranking mode orders candidate paths by relation label similarity.
	// Replies are only generated with a local generation model.
	config := kgdial.DefaultConfig()
	config.GeneratorModel = os.Getenv("KGDIAL_GENERATOR_MODEL")

	d, err := kgdial.NewDialogWithTables(dbConfig, config, tables)
	if err != nil {
		log.Fatalf("Failed to create dialog: %v", err)
	}
	defer d.Close()

	// Embedder, entity recognition and optional generator
	if err := d.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	ctx := context.Background()
	err = d.InsertGraph(ctx,
		[]*model.Entity{
			{ID: "Q42", Label: "Douglas Adams"},
			{ID: "Q350", Label: "Cambridge"},
			{ID: "Q691283", Label: "St John's College"},
			{ID: "Q25338", Label: "The Hitchhiker's Guide to the Galaxy"},
			{ID: "Q5", Label: "human"},
		},
		[]*model.Relation{
			{ID: "P19", Label: "place of birth"},
			{ID: "P31", Label: "instance of"},
			{ID: "P69", Label: "educated at"},
			{ID: "P800", Label: "notable work"},
		},
		[]*model.Fact{
			{Subject: "Q42", Relation: "P31", Object: "Q5"},
			{Subject: "Q42", Relation: "P19", Object: "Q350"},
			{Subject: "Q42", Relation: "P69", Object: "Q691283"},
			{Subject: "Q42", Relation: "P800", Object: "Q25338"},
		},
	)
	if err != nil {
		log.Fatalf("Failed to insert graph: %v", err)
	}

	utterances := []string{
		"Which university did Douglas Adams go to?",
		"What is Douglas Adams famous for?",
	}

	if d.Generator == nil {
		// Entities are linked from the utterances
		for _, utterance := range utterances {
			entities, err := d.LinkEntities(ctx, utterance)
			if err != nil {
				log.Fatalf("Failed to link entities: %v", err)
			}
			results, err := d.Rank(ctx, []string{utterance}, [][]model.EntityRef{entities})
			if err != nil {
				log.Fatalf("Failed to rank: %v", err)
			}
			fmt.Printf("\n--- %s ---\n", utterance)
			fmt.Printf("Outcome: %s, confidence %.4f\n", results[0].Outcome, results[0].Confidence)
			fmt.Printf("Evidence: %v\n", results[0].Texts())
		}
		fmt.Println("\nSet KGDIAL_GENERATOR_MODEL to generate replies")
		return
	}

	replies, err := d.Respond(ctx, utterances, nil)
	if err != nil {
		log.Fatalf("Failed to respond: %v", err)
	}
	for _, reply := range replies {
		fmt.Printf("\n--- %s ---\n", reply.Utterance)
		fmt.Printf("Evidence: %v (confidence %.4f)\n", reply.Rank.Texts(), reply.Rank.Confidence)
		fmt.Printf("Reply: %s\n", reply.Text)
	}

	fmt.Println("\nAdvanced example completed successfully!")
}
