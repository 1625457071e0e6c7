package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounterStore shares export counters across server instances. INCR is
// atomic server-side, so concurrent bursts from one principal count exactly;
// the key expires with the window, giving the lazy reset for free.
type RedisCounterStore struct {
	client *redis.Client
	prefix string
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client, prefix: "export:window:"}
}

func (s *RedisCounterStore) Increment(ctx context.Context, principalID string, window time.Duration, _ time.Time) (int, error) {
	key := s.prefix + principalID

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("increment export counter: %w", err)
	}
	if count == 1 {
		// First hit of a fresh window; pin its expiry.
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("set export counter expiry: %w", err)
		}
	}
	return int(count), nil
}
