// Package cache wraps Redis behind a tiny interface so services stay
// unit-testable. Misses and Redis failures are indistinguishable on
// purpose: the database is always authoritative.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Del(ctx context.Context, keys ...string)
}

type redisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return value, true
}

func (c *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	c.client.Set(ctx, key, value, ttl)
}

func (c *redisCache) Del(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	c.client.Del(ctx, keys...)
}

// Noop returns a cache that stores nothing; used when Redis is disabled.
func Noop() Cache { return noopCache{} }

type noopCache struct{}

func (noopCache) Get(context.Context, string) (string, bool)         { return "", false }
func (noopCache) Set(context.Context, string, string, time.Duration) {}
func (noopCache) Del(context.Context, ...string)                     {}
