package server

import (
	"github.com/gofiber/fiber/v2"
)

// ProfileFollow handles POST /:username/follow/
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	username := c.Params("username")
	if _, err := s.followService.Follow(c.UserContext(), currentUserID(c), username); err != nil {
		return s.fail(c, err)
	}
	return c.Redirect(profileURL(username), fiber.StatusFound)
}

// ProfileUnfollow handles POST /:username/unfollow/
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	username := c.Params("username")
	if _, err := s.followService.Unfollow(c.UserContext(), currentUserID(c), username); err != nil {
		return s.fail(c, err)
	}
	return c.Redirect(profileURL(username), fiber.StatusFound)
}
