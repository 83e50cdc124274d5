// Command main runs a one-shot sweep of expired ephemeral posts.
// The API server runs the same sweeper continuously; this binary exists for
// cron-style deployments and manual cleanups.
package main

import (
	"context"
	"log"
	"time"

	"voidline/internal/config"
	"voidline/internal/database"
	"voidline/internal/repository"
	"voidline/internal/sweeper"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s := sweeper.New(repository.NewVoidPostRepository(db), cfg.SweepInterval)
	swept, err := s.SweepOnce(ctx)
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
	log.Printf("Swept %d expired void posts", swept)
}
