package service

import (
	"context"
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

type FollowService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
}

func NewFollowService(follows repository.FollowRepository, users repository.UserRepository) *FollowService {
	return &FollowService{follows: follows, users: users}
}

// Follow subscribes userID to the author named username. Following yourself
// and following someone twice are both no-ops.
func (s *FollowService) Follow(ctx context.Context, userID uint, username string) (*models.User, error) {
	if userID == 0 {
		return nil, models.NewUnauthenticatedError()
	}
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author.ID == userID {
		return author, nil
	}

	created, err := s.follows.Follow(ctx, userID, author.ID)
	if err != nil {
		return nil, err
	}
	if created {
		observability.FollowActions.WithLabelValues("follow").Inc()
		middleware.Logger.InfoContext(ctx, "follow created", slog.Any("author_id", author.ID))
	}
	return author, nil
}

// Unfollow removes the subscription. Unfollowing an author you do not follow
// is NotFound.
func (s *FollowService) Unfollow(ctx context.Context, userID uint, username string) (*models.User, error) {
	if userID == 0 {
		return nil, models.NewUnauthenticatedError()
	}
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.follows.Unfollow(ctx, userID, author.ID); err != nil {
		return nil, err
	}
	observability.FollowActions.WithLabelValues("unfollow").Inc()
	return author, nil
}

// IsFollowing reports whether userID follows authorID. It is always false for
// an anonymous requester.
func (s *FollowService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	return s.follows.Exists(ctx, userID, authorID)
}

// Counts returns how many users follow authorID and how many authors
// authorID follows.
func (s *FollowService) Counts(ctx context.Context, authorID uint) (followers, following int64, err error) {
	if followers, err = s.follows.CountFollowers(ctx, authorID); err != nil {
		return 0, 0, err
	}
	if following, err = s.follows.CountFollowing(ctx, authorID); err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}
