package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"yatube/internal/cache"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

const (
	// PageSize is the page size of the global, group and follow lists.
	PageSize = 10
	// ProfilePageSize is the page size of an author's profile.
	ProfilePageSize = 5
)

type PostService struct {
	posts    repository.PostRepository
	groups   repository.GroupRepository
	images   *ImageService
	cache    *cache.Cache
	indexTTL time.Duration
}

type CreatePostInput struct {
	AuthorID uint
	Text     string
	Group    string
	Image    *ImageUpload
}

type UpdatePostInput struct {
	UserID   uint
	Username string
	PostID   uint
	Text     string
	Group    string
	Image    *ImageUpload
}

// GroupPosts is one page of a group's posts together with the group.
type GroupPosts struct {
	Group *models.Group                 `json:"group"`
	Page  *repository.Page[models.Post] `json:"page"`
}

func NewPostService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	images *ImageService,
	c *cache.Cache,
	indexTTL time.Duration,
) *PostService {
	if indexTTL <= 0 {
		indexTTL = cache.DefaultIndexTTL
	}
	return &PostService{
		posts:    posts,
		groups:   groups,
		images:   images,
		cache:    c,
		indexTTL: indexTTL,
	}
}

// ListIndex returns a page of every post, newest first. The first page is
// served from cache for indexTTL.
func (s *PostService) ListIndex(ctx context.Context, page int) (*repository.Page[models.Post], error) {
	if page != 1 {
		p, err := s.posts.List(ctx, page, PageSize)
		if err != nil {
			return nil, err
		}
		s.images.ResolvePage(p)
		return p, nil
	}
	var out repository.Page[models.Post]
	err := s.cache.Aside(ctx, "index", cache.IndexPageKey(1), &out, s.indexTTL, func() error {
		p, err := s.posts.List(ctx, 1, PageSize)
		if err != nil {
			return err
		}
		s.images.ResolvePage(p)
		out = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListGroup returns a page of the group's posts. An unknown slug is NotFound.
func (s *PostService) ListGroup(ctx context.Context, slug string, page int) (*GroupPosts, error) {
	var group models.Group
	err := s.cache.Aside(ctx, "group", cache.GroupKey(slug), &group, cache.GroupTTL, func() error {
		g, err := s.groups.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}
		group = *g
		return nil
	})
	if err != nil {
		return nil, err
	}

	p, err := s.posts.ListByGroup(ctx, group.ID, page, PageSize)
	if err != nil {
		return nil, err
	}
	s.images.ResolvePage(p)
	return &GroupPosts{Group: &group, Page: p}, nil
}

// Feed returns a page of posts by authors userID follows.
func (s *PostService) Feed(ctx context.Context, userID uint, page int) (*repository.Page[models.Post], error) {
	if userID == 0 {
		return nil, models.NewUnauthenticatedError()
	}
	p, err := s.posts.ListFeed(ctx, userID, page, PageSize)
	if err != nil {
		return nil, err
	}
	s.images.ResolvePage(p)
	return p, nil
}

// Get resolves a post by author username and id.
func (s *PostService) Get(ctx context.Context, username string, postID uint) (*models.Post, error) {
	post, err := s.posts.GetByAuthorAndID(ctx, username, postID)
	if err != nil {
		return nil, err
	}
	s.images.Resolve(post)
	return post, nil
}

// Groups lists the groups a post can be filed under.
func (s *PostService) Groups(ctx context.Context) ([]models.Group, error) {
	return s.groups.List(ctx)
}

// resolveGroup validates the optional group selection.
func (s *PostService) resolveGroup(ctx context.Context, raw string) (*uint, error) {
	id, ok := validation.PostForm{Group: raw}.GroupID()
	if !ok {
		return nil, models.NewFieldValidationError(map[string]string{"group": "Select a valid choice."})
	}
	if id == nil {
		return nil, nil
	}
	if _, err := s.groups.GetByID(ctx, *id); err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return nil, models.NewFieldValidationError(map[string]string{
				"group": "Select a valid choice. That choice is not one of the available choices.",
			})
		}
		return nil, err
	}
	return id, nil
}

func (s *PostService) validate(ctx context.Context, text, group string) (*uint, error) {
	if errs := validation.Struct(validation.PostForm{Text: text, Group: group}); errs != nil {
		return nil, models.NewFieldValidationError(errs)
	}
	return s.resolveGroup(ctx, group)
}

// Create stores a new post by the requester. Nothing is stored when the
// text, group or image is invalid.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "Create")
	post, err := s.create(ctx, in)
	observability.EndSpan(span, err)
	return post, err
}

func (s *PostService) create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.AuthorID == 0 {
		return nil, models.NewUnauthenticatedError()
	}
	text := strings.TrimSpace(in.Text)
	groupID, err := s.validate(ctx, text, in.Group)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     text,
		AuthorID: in.AuthorID,
		GroupID:  groupID,
	}
	if in.Image != nil {
		ref, err := s.images.Store(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = ref
	}

	if err := s.posts.Create(ctx, post); err != nil {
		s.images.Remove(ctx, post.Image)
		return nil, err
	}
	s.cache.InvalidateIndex(ctx)
	observability.ContentCreated.WithLabelValues("post").Inc()
	middleware.Logger.DebugContext(ctx, "post created",
		slog.Uint64("post_id", uint64(post.ID)),
		slog.String("excerpt", post.Excerpt()),
	)
	s.images.Resolve(post)
	return post, nil
}

// Update edits the text, group and image of a post. Only the author may edit;
// anyone else gets a Forbidden error and the post is left untouched.
// The returned post is the stored post, even on validation failure.
func (s *PostService) Update(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.posts.GetByAuthorAndID(ctx, in.Username, in.PostID)
	if err != nil {
		return nil, err
	}
	if in.UserID == 0 || in.UserID != post.AuthorID {
		return post, models.NewForbiddenError("Only the author can edit this post")
	}

	text := strings.TrimSpace(in.Text)
	groupID, err := s.validate(ctx, text, in.Group)
	if err != nil {
		return post, err
	}

	updated := *post
	updated.Text = text
	updated.GroupID = groupID
	oldImage := post.Image
	if in.Image != nil {
		ref, err := s.images.Store(ctx, *in.Image)
		if err != nil {
			return post, err
		}
		updated.Image = ref
	}

	if err := s.posts.Update(ctx, &updated); err != nil {
		if updated.Image != oldImage {
			s.images.Remove(ctx, updated.Image)
		}
		return post, err
	}
	if updated.Image != oldImage {
		s.images.Remove(ctx, oldImage)
	}
	s.cache.InvalidateIndex(ctx)

	saved, err := s.posts.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	s.images.Resolve(saved)
	return saved, nil
}

// Delete removes a post and its comments. Only the author may delete.
func (s *PostService) Delete(ctx context.Context, userID uint, username string, postID uint) error {
	if userID == 0 {
		return models.NewUnauthenticatedError()
	}
	post, err := s.posts.GetByAuthorAndID(ctx, username, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return models.NewForbiddenError("Only the author can delete this post")
	}
	if err := s.posts.Delete(ctx, post.ID); err != nil {
		return err
	}
	s.images.Remove(ctx, post.Image)
	s.cache.InvalidateIndex(ctx)
	return nil
}
