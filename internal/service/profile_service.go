package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

// AuthorSummary is the author block shared by the profile and post pages.
type AuthorSummary struct {
	Author       *models.User `json:"author"`
	DisplayName  string       `json:"display_name"`
	PostsCount   int64        `json:"posts_count"`
	Followers    int64        `json:"followers"`
	AuthorFollow int64        `json:"author_follow"`
	Following    bool         `json:"following"`
}

// ProfilePage is the context of an author's profile.
type ProfilePage struct {
	AuthorSummary
	Page *repository.Page[models.Post] `json:"page"`
}

// PostPage is the context of a single post.
type PostPage struct {
	AuthorSummary
	Post     *models.Post           `json:"post"`
	Comments []models.Comment       `json:"comments"`
	Form     validation.CommentForm `json:"form"`
}

type ProfileService struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	follows  *FollowService
	images   *ImageService
}

func NewProfileService(
	users repository.UserRepository,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	follows *FollowService,
	images *ImageService,
) *ProfileService {
	return &ProfileService{users: users, posts: posts, comments: comments, follows: follows, images: images}
}

func (s *ProfileService) summary(ctx context.Context, viewerID uint, author *models.User) (AuthorSummary, error) {
	out := AuthorSummary{Author: author, DisplayName: author.DisplayName()}
	var err error
	if out.PostsCount, err = s.posts.CountByAuthor(ctx, author.ID); err != nil {
		return out, err
	}
	if out.Followers, out.AuthorFollow, err = s.follows.Counts(ctx, author.ID); err != nil {
		return out, err
	}
	if out.Following, err = s.follows.IsFollowing(ctx, viewerID, author.ID); err != nil {
		return out, err
	}
	return out, nil
}

// Profile builds an author's profile page as seen by viewerID (0 if anonymous).
func (s *ProfileService) Profile(ctx context.Context, viewerID uint, username string, page int) (*ProfilePage, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	sum, err := s.summary(ctx, viewerID, author)
	if err != nil {
		return nil, err
	}
	p, err := s.posts.ListByAuthor(ctx, author.ID, page, ProfilePageSize)
	if err != nil {
		return nil, err
	}
	s.images.ResolvePage(p)
	return &ProfilePage{AuthorSummary: sum, Page: p}, nil
}

// Post builds the single-post page: the post, its comments newest first and
// an empty comment form.
func (s *ProfileService) Post(ctx context.Context, viewerID uint, username string, postID uint) (*PostPage, error) {
	post, err := s.posts.GetByAuthorAndID(ctx, username, postID)
	if err != nil {
		return nil, err
	}
	sum, err := s.summary(ctx, viewerID, &post.Author)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	s.images.Resolve(post)
	return &PostPage{AuthorSummary: sum, Post: post, Comments: comments}, nil
}
