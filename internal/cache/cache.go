package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"yatube/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Cache is a nil-safe wrapper around a Redis client. A Cache built from a nil
// client misses every lookup and drops every write.
type Cache struct {
	rdb *redis.Client
}

// New wraps rdb, which may be nil.
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Client returns the underlying Redis client, possibly nil.
func (c *Cache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

// Enabled reports whether a Redis client is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	s, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(s, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first; on a miss it calls fetch, which must populate dest,
// then stores dest with ttl. Cache failures never fail the call.
func (c *Cache) Aside(ctx context.Context, family, key string, dest any, ttl time.Duration, fetch func() error) error {
	if found, err := c.GetJSON(ctx, key, dest); err == nil && found {
		observability.CacheLookups.WithLabelValues(family, "hit").Inc()
		return nil
	}
	observability.CacheLookups.WithLabelValues(family, "miss").Inc()

	if err := fetch(); err != nil {
		return err
	}

	_ = c.SetJSON(ctx, key, dest, ttl)
	return nil
}

// Invalidate deletes the given keys. It is a no-op without Redis.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	c.rdb.Del(ctx, keys...)
}

// InvalidateIndex drops the cached first page of the global list.
func (c *Cache) InvalidateIndex(ctx context.Context) {
	c.Invalidate(ctx, IndexPageKey(1))
}

// InvalidateGroup drops the cached group for slug.
func (c *Cache) InvalidateGroup(ctx context.Context, slug string) {
	c.Invalidate(ctx, GroupKey(slug))
}

// Revoke marks a token ID as revoked until ttl elapses.
func (c *Cache) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, RevokedTokenKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether jti has been revoked.
func (c *Cache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	n, err := c.rdb.Exists(ctx, RevokedTokenKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
