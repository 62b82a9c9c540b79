package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRateLimiter_BypassEnvironments(t *testing.T) {
	for _, env := range []string{"", "test", "development", "stress"} {
		allowed, err := NewRateLimiter(nil, env).Allow(context.Background(), "login", "ip:1", 0, time.Minute)
		assert.NoError(t, err, env)
		assert.True(t, allowed, env)
	}
}

func TestRateLimiter_NilRedis(t *testing.T) {
	allowed, err := NewRateLimiter(nil, "production").Allow(context.Background(), "login", "ip:1", 1, time.Minute)
	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestRateLimiter_CountsWithinWindow(t *testing.T) {
	mr, rdb := newRedis(t)
	l := NewRateLimiter(rdb, "production")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := l.Allow(ctx, "login", "ip:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := l.Allow(ctx, "login", "ip:1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	mr.FastForward(2 * time.Minute)
	allowed, err = l.Allow(ctx, "login", "ip:1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_Middleware(t *testing.T) {
	_, rdb := newRedis(t)
	l := NewRateLimiter(rdb, "production")

	app := fiber.New()
	app.Post("/auth/login/", l.Limit("login", 1, time.Minute, FailOpen), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/auth/login/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/auth/login/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestRateLimiter_FailClosed(t *testing.T) {
	l := NewRateLimiter(nil, "production")

	app := fiber.New()
	app.Post("/x", l.Limit("x", 1, time.Minute, FailClosed), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
