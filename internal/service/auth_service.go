package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"yatube/internal/cache"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenIssuer   = "yatube"
	TokenAudience = "yatube-web"
	TokenTTL      = 7 * 24 * time.Hour
)

type AuthService struct {
	users  repository.UserRepository
	cache  *cache.Cache
	secret []byte
	now    func() time.Time
}

// Session is an issued token for a user.
type Session struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func NewAuthService(users repository.UserRepository, c *cache.Cache, secret string) *AuthService {
	return &AuthService{users: users, cache: c, secret: []byte(secret), now: time.Now}
}

// Signup creates an account and signs the new user in.
func (s *AuthService) Signup(ctx context.Context, form validation.SignupForm) (*Session, error) {
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	if errs := validation.Struct(form); errs != nil {
		return nil, models.NewFieldValidationError(errs)
	}
	if err := validation.ValidatePassword(form.Password); err != nil {
		return nil, models.NewFieldValidationError(map[string]string{"password": err.Error()})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Username:  form.Username,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Password:  string(hashed),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login checks credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, form validation.LoginForm) (*Session, error) {
	if errs := validation.Struct(form); errs != nil {
		return nil, models.NewFieldValidationError(errs)
	}
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(form.Username))
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	if len(s.secret) == 0 {
		return nil, models.NewInternalError(errors.New("JWT secret not configured"))
	}
	now := s.now()
	exp := now.Add(TokenTTL)
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"iss":      TokenIssuer,
		"aud":      TokenAudience,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      generateJTI(now),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &Session{User: user, Token: signed, ExpiresAt: exp}, nil
}

func generateJTI(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8])
}

func (s *AuthService) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}
	return claims, nil
}

// Authenticate resolves a token to a user ID. Revoked tokens and tokens of
// deleted accounts are rejected.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (uint, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return 0, err
	}
	if jti, _ := claims["jti"].(string); jti != "" {
		revoked, err := s.cache.IsRevoked(ctx, jti)
		if err != nil {
			return 0, models.NewInternalError(err)
		}
		if revoked {
			return 0, models.NewUnauthorizedError("Token has been revoked")
		}
	}
	sub, _ := claims["sub"].(string)
	uid, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || uid == 0 {
		return 0, models.NewUnauthorizedError("Invalid token subject")
	}
	if _, err := s.users.GetByID(ctx, uint(uid)); err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return 0, models.NewUnauthorizedError("Account no longer exists")
		}
		return 0, err
	}
	return uint(uid), nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if err := s.cache.Revoke(ctx, jti, exp.Sub(s.now())); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
