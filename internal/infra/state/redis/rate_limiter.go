package redisstate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RateLimiter is a fixed-window counter kept in Redis.
type RateLimiter struct {
	client    *redis.Client
	keyPrefix string
}

func NewRateLimiter(client *redis.Client, keyPrefix string) *RateLimiter {
	if client == nil {
		panic("redis client cannot be nil for RateLimiter")
	}
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RateLimiter{client: client, keyPrefix: keyPrefix}
}

func (r *RateLimiter) counterKey(key string) string {
	return fmt.Sprintf("%sratelimit:%s", r.keyPrefix, key)
}

// Exceeded increments the counter for key and reports whether it went over
// limit within the window.
func (r *RateLimiter) Exceeded(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	k := r.counterKey(key)
	pipe := r.client.Pipeline()
	incrCmd := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: pipeline failed for rate limit check on key %s: %w", k, err)
	}
	count, err := incrCmd.Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to get incr result for rate limit on key %s: %w", k, err)
	}
	return count > int64(limit), nil
}
