// Command main runs the database seeder for Voidline.
package main

import (
	"context"
	"flag"
	"log"

	"voidline/internal/config"
	"voidline/internal/database"
	"voidline/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	numPacks := flag.Int("packs", 20, "Number of sticker packs to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d posts, %d packs, clean=%v\n", *numUsers, *numPosts, *numPacks, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db)

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	users, err := s.SeedSocialMesh(ctx, *numUsers)
	if err != nil {
		log.Fatalf("User seeding failed: %v", err)
	}
	if _, err := s.SeedEngagement(ctx, users, *numPosts); err != nil {
		log.Fatalf("Engagement seeding failed: %v", err)
	}
	if err := s.SeedVoid(ctx, users); err != nil {
		log.Fatalf("Void post seeding failed: %v", err)
	}
	if err := s.SeedStickerMarket(ctx, users, *numPacks); err != nil {
		log.Fatalf("Sticker seeding failed: %v", err)
	}

	log.Println("All done! Your database is now populated with test data.")
}
