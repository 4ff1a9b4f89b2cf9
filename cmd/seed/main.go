// Command seed populates the database with sample accounts, posts and resources.
package main

import (
	"flag"
	"log"

	"sharify/internal/config"
	"sharify/internal/database"
	"sharify/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Hash passwords at the minimum bcrypt cost")
	dryRun := flag.Bool("dry-run", false, "Log what would be written without touching the database")
	admin := flag.String("admin", "", "Promote the account with this email to admin after seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	opts := seed.Options{SkipBcrypt: *fast, DryRun: *dryRun, BatchSize: 100}
	if *dryRun {
		stats, err := seed.NewSeeder(nil, opts).Run(*numUsers, *numPosts)
		if err != nil {
			log.Fatalf("❌ Dry run failed: %v", err)
		}
		log.Printf("Dry run: %+v", *stats)
		return
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	s := seed.NewSeeder(db, opts)
	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	stats, err := s.Run(*numUsers, *numPosts)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	log.Printf("Created %d users, %d posts, %d comments, %d likes, %d bookmarks, %d resources",
		stats.Users, stats.Posts, stats.Comments, stats.Likes, stats.Bookmarks, stats.Resources)

	if *admin != "" {
		if err := s.PromoteAdmin(*admin); err != nil {
			log.Fatalf("❌ Promote admin failed: %v", err)
		}
		log.Printf("Promoted %s to admin", *admin)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 All test users have the password: %s", seed.DefaultPassword)
}
