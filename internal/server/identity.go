package server

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	sessionCookie = "access_token"
	loginURL      = "/auth/login/"
)

// bearerToken returns the token from the Authorization header, falling back
// to the session cookie.
func bearerToken(c *fiber.Ctx) string {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return c.Cookies(sessionCookie)
}

// Identify resolves the requester from a bearer token or session cookie.
// It never rejects a request: a missing, invalid or revoked token leaves the
// request anonymous.
func (s *Server) Identify() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Next()
		}

		userID, err := s.authService.Authenticate(c.UserContext(), token)
		if err != nil {
			if models.ErrorCode(err) == models.CodeInternal {
				middleware.Logger.WarnContext(c.UserContext(), "token check failed",
					slog.String("error", err.Error()))
			}
			return c.Next()
		}

		c.Locals("userID", userID)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// currentUserID is the authenticated requester, or 0 when anonymous.
func currentUserID(c *fiber.Ctx) uint {
	if uid, ok := c.Locals("userID").(uint); ok {
		return uid
	}
	return 0
}

// LoginRequired redirects anonymous requests to the login page, carrying the
// original URL in the next parameter.
func (s *Server) LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUserID(c) == 0 {
			return redirectToLogin(c)
		}
		return c.Next()
	}
}

func redirectToLogin(c *fiber.Ctx) error {
	return c.Redirect(loginURL+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
}

// safeNext accepts only site-relative redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	return next
}
