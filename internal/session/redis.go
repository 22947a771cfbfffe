package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avelkine/filevault/internal/errs"
)

// RedisStore implements Store on a Redis client, relying on Redis EX expiry.
type RedisStore struct{ c *redis.Client }

// NewRedisStore constructs a store over an explicit client handle.
func NewRedisStore(c *redis.Client) *RedisStore { return &RedisStore{c: c} }

// Set binds key to value with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.c.Set(ctx, key, value, ttl).Err()
}

// Get returns the value at key or errs.ErrNotFound when absent or expired.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", errs.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Del removes key unconditionally.
func (s *RedisStore) Del(ctx context.Context, key string) error {
	return s.c.Del(ctx, key).Err()
}

// Ping reports liveness of the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.c.Ping(ctx).Err()
}
