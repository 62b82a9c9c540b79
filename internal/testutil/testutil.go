// Package testutil provides shared fixtures for tests: an in-memory database,
// small persisted entities and tiny encoded images.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"yatube/internal/database"
	"yatube/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory sqlite database private to t.
// The pool is pinned to one connection so every query sees the same memory store.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser persists a user with the given username.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Password: "not-a-real-hash"}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateGroup persists a group.
func CreateGroup(t *testing.T, db *gorm.DB, title, slug string) *models.Group {
	t.Helper()
	g := &models.Group{Title: title, Slug: slug, Description: "about " + title}
	require.NoError(t, db.Create(g).Error)
	return g
}

// CreatePost persists a post by author, optionally in group.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateComment persists a comment on post by author.
func CreateComment(t *testing.T, db *gorm.DB, post *models.Post, author *models.User, text string) *models.Comment {
	t.Helper()
	c := &models.Comment{PostID: post.ID, AuthorID: author.ID, Text: text}
	require.NoError(t, db.Create(c).Error)
	return c
}

// TinyPNG returns a w x h PNG filled with a solid color.
func TinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
