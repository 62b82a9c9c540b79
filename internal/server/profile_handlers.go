package server

import (
	"github.com/gofiber/fiber/v2"
)

// Profile handles GET /:username/
func (s *Server) Profile(c *fiber.Ctx) error {
	page, err := s.profileService.Profile(c.UserContext(), currentUserID(c), c.Params("username"), parsePage(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(page)
}

// PostView handles GET /:username/:post_id/
func (s *Server) PostView(c *fiber.Ctx) error {
	postID, ok := parseID(c, "post_id")
	if !ok {
		return renderNotFound(c)
	}
	page, err := s.profileService.Post(c.UserContext(), currentUserID(c), c.Params("username"), postID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(page)
}
