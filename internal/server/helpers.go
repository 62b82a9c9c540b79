package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// notFoundPage is the context of the "page not found" error page.
type notFoundPage struct {
	Code string `json:"code"`
	Path string `json:"path"`
}

// serverErrorPage carries no detail about the failure.
type serverErrorPage struct {
	Code string `json:"code"`
}

func renderNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(notFoundPage{Code: models.CodeNotFound, Path: c.Path()})
}

func renderServerError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(serverErrorPage{Code: models.CodeInternal})
}

// fail maps a service error onto its response: not found and internal errors
// become the error pages, a missing identity becomes a login redirect.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	switch models.ErrorCode(err) {
	case models.CodeNotFound:
		return renderNotFound(c)
	case models.CodeUnauthenticated:
		return redirectToLogin(c)
	case models.CodeValidation:
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	case models.CodeUnauthorized:
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	case models.CodeForbidden:
		return models.RespondWithError(c, fiber.StatusForbidden, err)
	}
	middleware.Logger.ErrorContext(c.UserContext(), "request failed",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return renderServerError(c)
}

// errorHandler renders errors that escaped a handler, including fiber's own
// route-not-found and body-limit errors.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code == fiber.StatusNotFound {
			return renderNotFound(c)
		}
		if fe.Code < fiber.StatusInternalServerError {
			return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
		}
	}
	return s.fail(c, err)
}

// fieldErrors extracts per-field validation messages, or nil when err is not
// a form validation error.
func fieldErrors(err error) map[string]string {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != models.CodeValidation {
		return nil
	}
	if appErr.Fields != nil {
		return appErr.Fields
	}
	return map[string]string{"__all__": appErr.Message}
}

// parsePage reads ?page= the lenient way: non-integers are page 1.
func parsePage(c *fiber.Ctx) int {
	return repository.ParsePageNumber(c.Query("page"))
}

// parseID reads a positive numeric route parameter. Anything else means the
// address does not exist.
func parseID(c *fiber.Ctx, param string) (uint, bool) {
	n, err := strconv.ParseUint(c.Params(param), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func postURL(username string, postID uint) string {
	return fmt.Sprintf("/%s/%d/", username, postID)
}

func profileURL(username string) string {
	return "/" + username + "/"
}

// bindForm decodes a urlencoded or multipart body into dst. An empty body
// leaves dst zero so validation can report the missing fields.
func bindForm(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(dst); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}

// readUpload returns the multipart "image" file, or nil when none was sent.
func (s *Server) readUpload(c *fiber.Ctx) (*service.ImageUpload, error) {
	fh, err := c.FormFile("image")
	if err != nil || fh == nil || fh.Filename == "" {
		return nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	// One byte past the limit is enough for the image service to reject it.
	limit := int64(s.config.ImageMaxUploadSizeMB) * 1024 * 1024
	if limit <= 0 {
		limit = service.DefaultImageMaxUploadSizeMB * 1024 * 1024
	}
	content, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}

	return &service.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}
