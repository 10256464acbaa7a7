package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces the counters in Redis.
const DefaultKeyPrefix = "tryon:quota:"

// Redis shares a fixed one-minute window per account across processes.
// The first request of a window creates the counter with a TTL of one
// window; requests beyond the limit are refused until it expires.
type Redis struct {
	client redis.UniversalClient
	prefix string
	limit  int64
	window time.Duration
}

// NewRedis creates a limiter on client. An empty prefix uses DefaultKeyPrefix.
func NewRedis(client redis.UniversalClient, prefix string, cfg Config) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{
		client: client,
		prefix: prefix,
		limit:  int64(cfg.RequestsPerMinute),
		window: time.Minute,
	}
}

// TryConsume increments the account's counter for the current window.
func (r *Redis) TryConsume(ctx context.Context, account string) (bool, time.Duration, error) {
	if r.limit <= 0 {
		return true, 0, nil
	}
	key := r.prefix + account

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return false, 0, fmt.Errorf("redis expire %s: %w", key, err)
		}
	}
	if count <= r.limit {
		return true, 0, nil
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis ttl %s: %w", key, err)
	}
	if ttl <= 0 {
		// The counter lost its expiry; start a fresh window.
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return false, 0, fmt.Errorf("redis expire %s: %w", key, err)
		}
		ttl = r.window
	}
	return false, ttl, nil
}
