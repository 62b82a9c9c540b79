package repository

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetByAuthorAndID(ctx context.Context, username string, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, page, perPage int) (*Page[models.Post], error)
	ListByGroup(ctx context.Context, groupID uint, page, perPage int) (*Page[models.Post], error)
	ListByAuthor(ctx context.Context, authorID uint, page, perPage int) (*Page[models.Post], error)
	ListFeed(ctx context.Context, userID uint, page, perPage int) (*Page[models.Post], error)
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// newestFirst preloads the display relations and applies the default ordering.
func newestFirst(q *gorm.DB) *gorm.DB {
	return q.Preload("Author").Preload("Group").Order("posts.created_at DESC").Order("posts.id DESC")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Group").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Author").Preload("Group").First(&post, id).Error; err != nil {
		return nil, translate(err, "Post", id)
	}
	return &post, nil
}

// GetByAuthorAndID resolves a post by its external address. A post that
// exists under a different author is reported as not found.
func (r *postRepository) GetByAuthorAndID(ctx context.Context, username string, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		Joins("JOIN users ON users.id = posts.author_id").
		Where("posts.id = ? AND users.username = ?", id, username).
		First(&post).Error
	if err != nil {
		return nil, translate(err, "Post", id)
	}
	return &post, nil
}

// Update writes only the editable fields. Author and creation time never change.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Select("text", "group_id", "image").
		Updates(map[string]interface{}{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

// Delete removes the post after its comments, in one transaction.
func (r *postRepository) Delete(ctx context.Context, id uint) (err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "delete", "posts")
	defer func() { observability.EndSpan(span, err) }()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, id).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	return translate(err, "Post", id)
}

func (r *postRepository) list(ctx context.Context, method string, scope func(*gorm.DB) *gorm.DB, page, perPage int) (*Page[models.Post], error) {
	defer observability.TrackQuery(method, "posts")()
	ctx, span := observability.StartRepositorySpan(ctx, method, "posts")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	base := r.db.WithContext(ctx).Model(&models.Post{})
	if scope != nil {
		base = scope(base)
	}
	var p *Page[models.Post]
	p, err = paginate[models.Post](base, page, perPage, newestFirst)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return p, nil
}

func (r *postRepository) List(ctx context.Context, page, perPage int) (*Page[models.Post], error) {
	return r.list(ctx, "list", nil, page, perPage)
}

func (r *postRepository) ListByGroup(ctx context.Context, groupID uint, page, perPage int) (*Page[models.Post], error) {
	return r.list(ctx, "list_by_group", func(q *gorm.DB) *gorm.DB {
		return q.Where("posts.group_id = ?", groupID)
	}, page, perPage)
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, page, perPage int) (*Page[models.Post], error) {
	return r.list(ctx, "list_by_author", func(q *gorm.DB) *gorm.DB {
		return q.Where("posts.author_id = ?", authorID)
	}, page, perPage)
}

// ListFeed pages through posts written by anyone userID follows.
func (r *postRepository) ListFeed(ctx context.Context, userID uint, page, perPage int) (*Page[models.Post], error) {
	followed := r.db.WithContext(ctx).Model(&models.Follow{}).Select("author_id").Where("user_id = ?", userID)
	return r.list(ctx, "list_feed", func(q *gorm.DB) *gorm.DB {
		return q.Where("posts.author_id IN (?)", followed)
	}, page, perPage)
}

func (r *postRepository) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
