package server

import (
	"time"

	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// authForm is the signup or login form as re-presented after a failure.
type authForm struct {
	Username string            `json:"username"`
	Email    string            `json:"email,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// authPage is the context of the signup and login pages.
type authPage struct {
	Form authForm `json:"form"`
	Next string   `json:"next,omitempty"`
}

func (s *Server) setSessionCookie(c *fiber.Ctx, session *service.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// SignupForm handles GET /auth/signup/
func (s *Server) SignupForm(c *fiber.Ctx) error {
	return c.JSON(authPage{})
}

// Signup handles POST /auth/signup/
func (s *Server) Signup(c *fiber.Ctx) error {
	var form validation.SignupForm
	if err := bindForm(c, &form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	session, err := s.authService.Signup(c.UserContext(), form)
	if errs := fieldErrors(err); errs != nil {
		return c.Status(fiber.StatusOK).JSON(authPage{
			Form: authForm{Username: form.Username, Email: form.Email, Errors: errs},
		})
	}
	if err != nil {
		return s.fail(c, err)
	}

	s.setSessionCookie(c, session)
	return c.Redirect("/", fiber.StatusFound)
}

// LoginForm handles GET /auth/login/
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return c.JSON(authPage{Next: safeNext(c.Query("next"))})
}

// Login handles POST /auth/login/
func (s *Server) Login(c *fiber.Ctx) error {
	var form validation.LoginForm
	if err := bindForm(c, &form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	next := c.FormValue("next", c.Query("next"))

	session, err := s.authService.Login(c.UserContext(), form)
	errs := fieldErrors(err)
	if models.ErrorCode(err) == models.CodeUnauthorized {
		errs = map[string]string{"__all__": "Please enter a correct username and password."}
	}
	if errs != nil {
		return c.Status(fiber.StatusOK).JSON(authPage{
			Form: authForm{Username: form.Username, Errors: errs},
			Next: safeNext(next),
		})
	}
	if err != nil {
		return s.fail(c, err)
	}

	s.setSessionCookie(c, session)
	return c.Redirect(safeNext(next), fiber.StatusFound)
}

// Logout handles POST /auth/logout/
func (s *Server) Logout(c *fiber.Ctx) error {
	if token := bearerToken(c); token != "" {
		err := s.authService.Logout(c.UserContext(), token)
		if err != nil && models.ErrorCode(err) == models.CodeInternal {
			return s.fail(c, err)
		}
	}
	s.clearSessionCookie(c)
	return c.Redirect("/", fiber.StatusFound)
}
