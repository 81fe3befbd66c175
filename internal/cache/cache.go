// Package cache stores rendered responses for a bounded time.
//
// An entry is either absent or populated. Populated entries are served
// verbatim until they expire or Clear drops them, so a cached page does not
// reflect writes made after it was rendered.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// New returns a Redis-backed cache, or a cache that never stores anything
// when no Redis client is configured.
func New(client *redis.Client, prefix string) Cache {
	if client == nil {
		return Noop{}
	}
	return NewRedis(client, prefix)
}

// Fetch serves key from c, rendering and storing it on a miss. Cache
// failures degrade to rendering; render failures are returned and nothing
// is stored.
func Fetch(ctx context.Context, c Cache, key string, ttl time.Duration, render func() ([]byte, error)) ([]byte, bool, error) {
	if body, ok, err := c.Get(ctx, key); err == nil && ok {
		return body, true, nil
	}
	body, err := render()
	if err != nil {
		return nil, false, err
	}
	if err := c.Set(ctx, key, body, ttl); err != nil {
		slog.Warn("cache store failed", "key", key, "err", err)
	}
	return body, false, nil
}

type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Clear(context.Context) error                              { return nil }
