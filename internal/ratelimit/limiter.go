// Package ratelimit implements a fixed-window request limiter on Redis,
// used to guard the open auth endpoints.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts requests per (purpose, key) in a fixed window.
type Limiter struct {
	client   *redis.Client
	requests int
	window   time.Duration
}

func NewLimiter(client *redis.Client, requests int, window time.Duration) *Limiter {
	return &Limiter{
		client:   client,
		requests: requests,
		window:   window,
	}
}

// Allow records one request and reports whether it is within the limit.
// The window starts on the first request for the key and the counter
// expires with it.
func (l *Limiter) Allow(ctx context.Context, purpose, key string) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s:%s", purpose, key)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	return incr.Val() <= int64(l.requests), nil
}
