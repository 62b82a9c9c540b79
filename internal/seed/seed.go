package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers       int
	NumGroups      int
	NumPosts       int
	NumComments    int
	FollowsPerUser int
	ShouldClean    bool
	SkipBcrypt     bool
	// Seed makes runs reproducible; zero means time-based.
	Seed int64
}

// Result counts what a run created.
type Result struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
}

// Seed fills db with demo users, groups, posts, comments and follows.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	if opts.NumUsers < 1 {
		return nil, fmt.Errorf("at least one user is required")
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	middleware.Logger.InfoContext(ctx, "seeding database",
		slog.Int("users", opts.NumUsers),
		slog.Int("groups", opts.NumGroups),
		slog.Int("posts", opts.NumPosts),
	)

	if opts.ShouldClean {
		if err := ClearAll(db); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	f := NewFactory(db, opts.Seed, opts.SkipBcrypt)
	res := &Result{}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	res.Users = len(users)

	groups := make([]*models.Group, 0, opts.NumGroups)
	for i := 0; i < opts.NumGroups; i++ {
		g, err := f.CreateGroup()
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	res.Groups = len(groups)

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[f.rng.Intn(len(users))]
		// Roughly a third of posts have no group.
		var group *models.Group
		if len(groups) > 0 && f.rng.Intn(3) != 0 {
			group = groups[f.rng.Intn(len(groups))]
		}
		p, err := f.CreatePost(author, group)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	res.Posts = len(posts)

	if len(posts) > 0 {
		for i := 0; i < opts.NumComments; i++ {
			post := posts[f.rng.Intn(len(posts))]
			if _, err := f.CreateComment(post, users[f.rng.Intn(len(users))]); err != nil {
				return nil, err
			}
			res.Comments++
		}
	}

	follows := repository.NewFollowRepository(db)
	for _, u := range users {
		for j := 0; j < opts.FollowsPerUser && len(users) > 1; j++ {
			author := users[f.rng.Intn(len(users))]
			if author.ID == u.ID {
				continue
			}
			created, err := follows.Follow(ctx, u.ID, author.ID)
			if err != nil {
				return nil, err
			}
			if created {
				res.Follows++
			}
		}
	}

	middleware.Logger.InfoContext(ctx, "seeding completed",
		slog.Int("users", res.Users),
		slog.Int("groups", res.Groups),
		slog.Int("posts", res.Posts),
		slog.Int("comments", res.Comments),
		slog.Int("follows", res.Follows),
	)
	return res, nil
}

// ClearAll deletes every row, dependents first.
func ClearAll(db *gorm.DB) error {
	all := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []any{&models.Comment{}, &models.Follow{}, &models.Post{}, &models.Group{}, &models.User{}} {
		if err := all.Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}
