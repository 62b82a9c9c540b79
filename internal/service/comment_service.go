package service

import (
	"context"
	"strings"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
}

type AddCommentInput struct {
	UserID   uint
	Username string
	PostID   uint
	Text     string
}

func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository) *CommentService {
	return &CommentService{comments: comments, posts: posts}
}

// Add attaches a comment by the requester to the post addressed by
// (Username, PostID). The username must belong to the post's author.
func (s *CommentService) Add(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthenticatedError()
	}
	post, err := s.posts.GetByAuthorAndID(ctx, in.Username, in.PostID)
	if err != nil {
		return nil, err
	}
	if errs := validation.Struct(validation.CommentForm{Text: in.Text}); errs != nil {
		return nil, models.NewFieldValidationError(errs)
	}

	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: in.UserID,
		Text:     strings.TrimSpace(in.Text),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.ContentCreated.WithLabelValues("comment").Inc()
	return comment, nil
}
