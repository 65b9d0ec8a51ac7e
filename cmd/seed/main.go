// Command main runs the database seeder for talkhub.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"talkhub/internal/config"
	"talkhub/internal/database"
	"talkhub/internal/observability"
	"talkhub/internal/seed"
)

func main() {
	numProfiles := flag.Int("profiles", 20, "Number of generated profiles")
	postsPerProfile := flag.Int("posts", 5, "Posts per generated profile")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fixturesPath := flag.String("fixtures", "", "YAML fixture file (defaults to SEED_FIXTURES)")
	randomSeed := flag.Int64("seed", 0, "Random seed for generated content (0 = random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}
	logger := observability.NewLogger(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	path := *fixturesPath
	if path == "" {
		path = cfg.SeedFixtures
	}
	var fixtures *seed.Fixtures
	if path != "" {
		fixtures, err = seed.LoadFixtures(path)
		if err != nil {
			log.Fatalf("Failed to load fixtures: %v", err)
		}
		logger.Info("Loaded fixtures", "path", path, "profiles", len(fixtures.Profiles))
	}

	if *randomSeed == 0 {
		*randomSeed = time.Now().UnixNano()
	}
	logger.Info("Seeding database",
		"profiles", *numProfiles,
		"posts_per_profile", *postsPerProfile,
		"clean", *shouldClean,
		"seed", *randomSeed,
	)

	s := seed.NewSeeder(db, *randomSeed, logger)
	if _, err := s.Run(context.Background(), seed.Options{
		NumProfiles:     *numProfiles,
		PostsPerProfile: *postsPerProfile,
		ShouldClean:     *shouldClean,
	}, fixtures); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
