package service

import (
	"context"
	"log/slog"
	"strings"

	"yatube/internal/cache"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

// AdminService holds operator-only operations: group management and account
// removal.
type AdminService struct {
	users  repository.UserRepository
	groups repository.GroupRepository
	cache  *cache.Cache
}

func NewAdminService(users repository.UserRepository, groups repository.GroupRepository, c *cache.Cache) *AdminService {
	return &AdminService{users: users, groups: groups, cache: c}
}

// CreateGroup validates and stores a new group.
func (s *AdminService) CreateGroup(ctx context.Context, form validation.GroupForm) (*models.Group, error) {
	form.Title = strings.TrimSpace(form.Title)
	form.Slug = strings.TrimSpace(form.Slug)
	if errs := validation.Struct(form); errs != nil {
		return nil, models.NewFieldValidationError(errs)
	}
	group := &models.Group{Title: form.Title, Slug: form.Slug, Description: form.Description}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *AdminService) ListGroups(ctx context.Context) ([]models.Group, error) {
	return s.groups.List(ctx)
}

// DeleteGroup removes a group. Its posts stay, without a group.
func (s *AdminService) DeleteGroup(ctx context.Context, slug string) error {
	if err := s.groups.Delete(ctx, slug); err != nil {
		return err
	}
	s.cache.InvalidateGroup(ctx, slug)
	s.cache.InvalidateIndex(ctx)
	middleware.Logger.InfoContext(ctx, "group deleted", slog.String("slug", slug))
	return nil
}

// DeleteUser removes an account with its posts, comments and follows.
func (s *AdminService) DeleteUser(ctx context.Context, username string) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}
	s.cache.InvalidateIndex(ctx)
	middleware.Logger.InfoContext(ctx, "user deleted", slog.String("username", username))
	return nil
}
