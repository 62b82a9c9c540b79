package server

import (
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AddComment handles POST /:username/:post_id/comment/
// It redirects back to the post whether or not the comment was valid.
func (s *Server) AddComment(c *fiber.Ctx) error {
	username := c.Params("username")
	postID, ok := parseID(c, "post_id")
	if !ok {
		return renderNotFound(c)
	}

	var form validation.CommentForm
	if err := bindForm(c, &form); err != nil {
		return c.Redirect(postURL(username, postID), fiber.StatusFound)
	}

	_, err := s.commentService.Add(c.UserContext(), service.AddCommentInput{
		UserID:   currentUserID(c),
		Username: username,
		PostID:   postID,
		Text:     form.Text,
	})
	switch models.ErrorCode(err) {
	case "":
	case models.CodeValidation:
		middleware.Logger.DebugContext(c.UserContext(), "comment rejected", slog.Any("errors", fieldErrors(err)))
	default:
		return s.fail(c, err)
	}
	return c.Redirect(postURL(username, postID), fiber.StatusFound)
}
