package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces rate-limit counters in Redis so they can't
// collide with session keys.
const redisKeyPrefix = "ratelimit:"

// RedisStore is a CounterStore backed by Redis INCR with a window-length
// TTL. Counters are shared by every instance pointing at the same Redis,
// giving a true distributed limit when the service is horizontally scaled.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed counter store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Increment atomically bumps the counter for key and returns the new count.
// The expiry is set only when the key is created, so the window is fixed
// from the first hit rather than sliding with each request.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	redisKey := redisKeyPrefix + key

	// INCR and the conditional EXPIRE run in one pipeline round-trip.
	// NX keeps the original window start; a plain EXPIRE would let an
	// attacker extend their own window forever by hammering the endpoint.
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("incrementing rate limit counter: %w", err)
	}

	return incr.Val(), nil
}
