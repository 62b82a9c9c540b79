// Package main provides operator commands for managing groups and users.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/repository"
	"yatube/internal/service"
	"yatube/internal/validation"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin create-group <slug> <title> [description]")
	fmt.Println("  go run ./cmd/admin delete-group <slug>      - posts keep existing without a group")
	fmt.Println("  go run ./cmd/admin delete-user <username>   - removes their posts, comments and follows")
	fmt.Println("  go run ./cmd/admin list-groups")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	admin := service.NewAdminService(
		repository.NewUserRepository(db),
		repository.NewGroupRepository(db),
		cache.New(cache.InitRedis(cfg.RedisURL)),
	)
	ctx := context.Background()

	switch os.Args[1] {
	case "create-group":
		if len(os.Args) < 4 {
			usage()
			os.Exit(1)
		}
		form := validation.GroupForm{Slug: os.Args[2], Title: os.Args[3]}
		if len(os.Args) > 4 {
			form.Description = os.Args[4]
		}
		group, err := admin.CreateGroup(ctx, form)
		if err != nil {
			log.Fatalf("Failed to create group: %v", err)
		}
		fmt.Printf("Created group %s (ID: %d)\n", group.Slug, group.ID)

	case "delete-group":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		if err := admin.DeleteGroup(ctx, os.Args[2]); err != nil {
			log.Fatalf("Failed to delete group: %v", err)
		}
		fmt.Printf("Deleted group %s\n", os.Args[2])

	case "delete-user":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		if err := admin.DeleteUser(ctx, os.Args[2]); err != nil {
			log.Fatalf("Failed to delete user: %v", err)
		}
		fmt.Printf("Deleted user %s\n", os.Args[2])

	case "list-groups":
		groups, err := admin.ListGroups(ctx)
		if err != nil {
			log.Fatalf("Failed to list groups: %v", err)
		}
		if len(groups) == 0 {
			fmt.Println("No groups found")
			return
		}
		for _, g := range groups {
			fmt.Printf("  %-20s %s\n", g.Slug, g.Title)
		}

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}
