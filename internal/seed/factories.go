// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db       *gorm.DB
	rng      *rand.Rand
	password string
	maxDays  int
	seq      int
}

// NewFactory creates a Factory bound to db. skipBcrypt stores a placeholder
// hash, which makes seeding fast but the accounts unusable for login.
func NewFactory(db *gorm.DB, seed int64, skipBcrypt bool) *Factory {
	gofakeit.Seed(seed)
	f := &Factory{
		db: db,
		//nolint:gosec // Weak random number generator is fine for seeding
		rng:     rand.New(rand.NewSource(seed)),
		maxDays: 90,
	}
	if skipBcrypt {
		f.password = "!unusable"
	} else {
		hashed, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		f.password = string(hashed)
	}
	return f
}

func (f *Factory) next() int {
	f.seq++
	return f.seq
}

// pastTime spreads created_at over the last maxDays days.
func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.rng.Intn(f.maxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

// CreateUser constructs and persists a user. Usernames are made unique with a
// sequence suffix.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	username := fmt.Sprintf("%s.%s%d", strings.ToLower(first), strings.ToLower(last), f.next())
	user := &models.User{
		Username:  sanitizeUsername(username),
		Email:     gofakeit.Email(),
		FirstName: first,
		LastName:  last,
		Password:  f.password,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// CreateGroup constructs and persists a group with a unique slug.
func (f *Factory) CreateGroup(overrides ...func(*models.Group)) (*models.Group, error) {
	word := gofakeit.HipsterWord()
	if word == "" {
		word = "group"
	}
	group := &models.Group{
		Title:       strings.ToUpper(word[:1]) + word[1:],
		Slug:        fmt.Sprintf("%s-%d", slugify(word), f.next()),
		Description: gofakeit.Sentence(12),
	}
	for _, override := range overrides {
		override(group)
	}
	if err := f.db.Create(group).Error; err != nil {
		return nil, fmt.Errorf("create group %s: %w", group.Slug, err)
	}
	return group, nil
}

// CreatePost constructs and persists a post by author, optionally in group.
func (f *Factory) CreatePost(author *models.User, group *models.Group, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		Text:      gofakeit.Paragraph(1, f.rng.Intn(4)+1, 12, "\n"),
		AuthorID:  author.ID,
		CreatedAt: f.pastTime(),
	}
	if group != nil {
		post.GroupID = &group.ID
	}
	for _, override := range overrides {
		override(post)
	}
	if err := f.db.Omit("Author", "Group").Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// CreateComment constructs and persists a comment on post by author.
func (f *Factory) CreateComment(post *models.Post, author *models.User) (*models.Comment, error) {
	created := post.CreatedAt.Add(time.Duration(f.rng.Intn(72*60)+1) * time.Minute)
	if created.After(time.Now()) {
		created = time.Now()
	}
	comment := &models.Comment{
		PostID:    post.ID,
		AuthorID:  author.ID,
		Text:      gofakeit.Sentence(f.rng.Intn(12) + 3),
		CreatedAt: created,
	}
	if err := f.db.Omit("Post", "Author").Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', strings.ContainsRune("_.@+-", r):
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > 150 {
		out = out[:150]
	}
	return out
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "group"
	}
	if len(out) > 40 {
		out = out[:40]
	}
	return out
}
