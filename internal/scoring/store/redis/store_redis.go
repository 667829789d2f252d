// Package redis provides the production Store backed by a Redis instance.
// Both tiers live in the same database: the persistent tier as plain keys,
// the cache tier as keys with a TTL.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"scoring/pkg/platform/sentinel"
)

// RedisStore implements store.Store on a go-redis client. The client
// lifecycle is managed by the caller.
type RedisStore struct {
	client *redis.Client
}

// New wraps an existing client.
func New(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get reads a persistent key. A missing key is (nil, nil); any other
// failure is a connectivity error the caller must handle.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", sentinel.ErrUnavailable, key, err)
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", sentinel.ErrUnavailable, key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: delete %s: %v", sentinel.ErrUnavailable, key, err)
	}
	return nil
}

// GetCache reads the cache tier. Misses and failures both read as nil so
// callers degrade to recomputing.
func (s *RedisStore) GetCache(ctx context.Context, key string) []byte {
	value, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	return value
}

// SetCache writes the cache tier with a TTL. Failures are dropped.
func (s *RedisStore) SetCache(ctx context.Context, key string, value []byte, ttl time.Duration) {
	_ = s.client.Set(ctx, key, value, ttl).Err()
}
