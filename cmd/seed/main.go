// Command main runs the database seeder for Yatube.
package main

import (
	"context"
	"flag"
	"log"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numGroups := flag.Int("groups", 5, "Number of groups to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	numComments := flag.Int("comments", 200, "Number of comments to create")
	follows := flag.Int("follows", 3, "Follow attempts per user")
	shouldClean := flag.Bool("clean", false, "Delete existing data before seeding")
	fast := flag.Bool("fast", false, "Skip bcrypt; seeded accounts cannot log in")
	randSeed := flag.Int64("seed", 0, "Random seed (0 = time based)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	res, err := seed.Seed(context.Background(), db, seed.Options{
		NumUsers:       *numUsers,
		NumGroups:      *numGroups,
		NumPosts:       *numPosts,
		NumComments:    *numComments,
		FollowsPerUser: *follows,
		ShouldClean:    *shouldClean,
		SkipBcrypt:     *fast,
		Seed:           *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d groups, %d posts, %d comments, %d follows",
		res.Users, res.Groups, res.Posts, res.Comments, res.Follows)
	if !*fast {
		log.Printf("Every seeded account uses the password %q", seed.DefaultPassword)
	}
}
