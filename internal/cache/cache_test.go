package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name string `json:"name"`
}

func newTestCache(t *testing.T) (*miniredis.Miniredis, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, New(rdb)
}

func TestAside_MissThenHit(t *testing.T) {
	_, c := newTestCache(t)
	ctx := context.Background()
	calls := 0
	fetch := func(dest *payload) func() error {
		return func() error {
			calls++
			dest.Name = "fresh"
			return nil
		}
	}

	var first payload
	require.NoError(t, c.Aside(ctx, "test", "k", &first, time.Minute, fetch(&first)))
	var second payload
	require.NoError(t, c.Aside(ctx, "test", "k", &second, time.Minute, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, "fresh", second.Name)
}

func TestAside_ExpiresAfterTTL(t *testing.T) {
	mr, c := newTestCache(t)
	ctx := context.Background()
	var p payload
	require.NoError(t, c.SetJSON(ctx, "k", payload{Name: "old"}, DefaultIndexTTL))

	mr.FastForward(DefaultIndexTTL + time.Second)

	called := false
	require.NoError(t, c.Aside(ctx, "test", "k", &p, time.Minute, func() error {
		called = true
		p.Name = "new"
		return nil
	}))
	assert.True(t, called)
	assert.Equal(t, "new", p.Name)
}

func TestAside_FetchError(t *testing.T) {
	_, c := newTestCache(t)
	var p payload
	err := c.Aside(context.Background(), "test", "k", &p, time.Minute, func() error {
		return errors.New("db down")
	})
	assert.Error(t, err)

	found, err := c.GetJSON(context.Background(), "k", &p)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNilCache_IsNoop(t *testing.T) {
	c := New(nil)
	ctx := context.Background()
	var p payload

	found, err := c.GetJSON(ctx, "k", &p)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.SetJSON(ctx, "k", p, time.Minute))
	assert.NotPanics(t, func() { c.InvalidateIndex(ctx) })

	revoked, err := c.IsRevoked(ctx, "jti")
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func TestInvalidateIndex(t *testing.T) {
	mr, c := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.SetJSON(ctx, IndexPageKey(1), payload{Name: "x"}, time.Minute))
	assert.True(t, mr.Exists(IndexPageKey(1)))

	c.InvalidateIndex(ctx)
	assert.False(t, mr.Exists(IndexPageKey(1)))
}

func TestRevoke(t *testing.T) {
	mr, c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Revoke(ctx, "abc", time.Hour))
	revoked, err := c.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)
	revoked, err = c.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInitRedis_Unreachable(t *testing.T) {
	assert.Nil(t, InitRedis("127.0.0.1:1"))
}

func TestInitRedis_URL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := InitRedis("redis://" + mr.Addr() + "/0")
	require.NotNil(t, client)
	_ = client.Close()
}
