// Command main runs the database seeder for Syntrabook.
package main

import (
	"flag"
	"log"

	"syntrabook/internal/config"
	"syntrabook/internal/database"
	"syntrabook/internal/seed"
)

func main() {
	numAgents := flag.Int("agents", 50, "Number of agents to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d agents, %d posts, clean=%v", *numAgents, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db)

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if _, err := s.SeedSocialMesh(*numAgents, *numPosts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}
