package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/todohub/internal/redisclient"
	"github.com/redis/go-redis/v9"
)

// RedisStore shares cached todo lists between api replicas so an update on
// one replica invalidates the list for all of them.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisStore(c *redisclient.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &RedisStore{
		client: c.Raw(),
		ttl:    ttl,
		prefix: "todohub:",
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Default().WarnContext(ctx, "cache_get_failed", "key", key, "err", err)
		}
		return nil, false
	}
	return b, true
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte) {
	if err := s.client.Set(ctx, s.prefix+key, val, s.ttl).Err(); err != nil {
		slog.Default().WarnContext(ctx, "cache_set_failed", "key", key, "err", err)
	}
}

func (s *RedisStore) Generation(ctx context.Context, key string) (int64, bool) {
	gen, err := s.client.Get(ctx, s.prefix+key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, true
		}
		slog.Default().WarnContext(ctx, "cache_generation_failed", "key", key, "err", err)
		return 0, false
	}
	return gen, true
}

// Bump uses INCR without a TTL: a generation that expired could repeat an
// older value and resurrect a stale fill.
func (s *RedisStore) Bump(ctx context.Context, key string) (int64, error) {
	gen, err := s.client.Incr(ctx, s.prefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("bump %s: %w", key, err)
	}
	return gen, nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}

	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, s.prefix+k)
	}

	if err := s.client.Del(ctx, full...).Err(); err != nil {
		slog.Default().WarnContext(ctx, "cache_delete_failed", "keys", keys, "err", err)
	}
}
