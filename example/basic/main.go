package main

import (
	"context"
	"fmt"
	"log"

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

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	// Humans (Q5) are asked about their place of birth first
	tables := model.NewTables(
		model.TypePathTable{
			"Q5": {
				{Path: model.Path{"P19"}, Score: 0.8},
				{Path: model.Path{"P69"}, Score: 0.4},
				{Path: model.Path{"P19", "P17"}, Score: 0.3},
			},
		},
		model.TypeGroupTable{},
		model.RelationFrequencyTable{
			"P19": {1000},
			"P69": {200},
			"P17": {5000},
		},
	)

	// Statistic mode needs no models
	config := kgdial.DefaultConfig()
	config.Ranker.UsePathStat = true

	d, err := kgdial.NewDialogWithTables(dbConfig, config, tables)
	if err != nil {
		log.Fatalf("Failed to create dialog: %v", err)
	}
	defer d.Close()

	ctx := context.Background()
	fmt.Println("Loading graph...")
	err = d.InsertGraph(ctx,
		[]*model.Entity{
			{ID: "Q42", Label: "Douglas Adams"},
			{ID: "Q350", Label: "Cambridge"},
			{ID: "Q145", Label: "United Kingdom"},
			{ID: "Q5", Label: "human"},
		},
		[]*model.Relation{
			{ID: "P17", Label: "country"},
			{ID: "P19", Label: "place of birth"},
			{ID: "P31", Label: "instance of"},
		},
		[]*model.Fact{
			{Subject: "Q42", Relation: "P31", Object: "Q5"},
			{Subject: "Q42", Relation: "P19", Object: "Q350"},
			{Subject: "Q350", Relation: "P17", Object: "Q145"},
		},
	)
	if err != nil {
		log.Fatalf("Failed to insert graph: %v", err)
	}

	utterances := []string{"Where was Douglas Adams born?", "Hello!"}
	entities := [][]model.EntityRef{model.EntityRefs("Q42"), nil}

	results, err := d.Rank(ctx, utterances, entities)
	if err != nil {
		log.Fatalf("Failed to rank: %v", err)
	}

	// Display results
	for i, result := range results {
		fmt.Printf("\n--- %s ---\n", utterances[i])
		fmt.Printf("Outcome: %s\n", result.Outcome)
		fmt.Printf("Confidence: %.4f\n", result.Confidence)
		fmt.Printf("Relations: %s\n", result.Relations)
		for _, text := range result.Texts() {
			fmt.Printf("Triplet: %s\n", text)
		}
	}

	fmt.Println("\nBasic example completed successfully!")
}
