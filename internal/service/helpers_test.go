package service

import (
	"testing"
	"time"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/storage"
	"yatube/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	mr       *miniredis.Miniredis
	cache    *cache.Cache
	store    *storage.FileStorage
	posts    *PostService
	comments *CommentService
	follows  *FollowService
	profiles *ProfileService
	auth     *AuthService
	admin    *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	c := cache.New(rdb)

	users := repository.NewUserRepository(db)
	groups := repository.NewGroupRepository(db)
	posts := repository.NewPostRepository(db)
	comments := repository.NewCommentRepository(db)
	follows := repository.NewFollowRepository(db)

	store := storage.NewFileStorage(t.TempDir(), "/media/")
	images := NewImageService(store, &config.Config{ImageMaxUploadSizeMB: 1})
	followSvc := NewFollowService(follows, users)

	return &fixture{
		db:       db,
		mr:       mr,
		cache:    c,
		store:    store,
		posts:    NewPostService(posts, groups, images, c, 20*time.Second),
		comments: NewCommentService(comments, posts),
		follows:  followSvc,
		profiles: NewProfileService(users, posts, comments, followSvc, images),
		auth:     NewAuthService(users, c, "test-secret-that-is-long-enough-123"),
		admin:    NewAdminService(users, groups, c),
	}
}

func (f *fixture) countPosts(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&models.Post{}).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

func (f *fixture) countComments(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&models.Comment{}).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

func assertCode(t *testing.T, code string, err error) {
	t.Helper()
	assert.Error(t, err)
	assert.Equal(t, code, models.ErrorCode(err))
}
