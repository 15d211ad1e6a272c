package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultRequests = 10
	DefaultWindow   = 15 * time.Minute
)

// Limiter counts requests per client IP in fixed windows stored in Redis.
type Limiter struct {
	client   *redis.Client
	requests int
	window   time.Duration
}

// NewLimiter allows requests per window for each IP and purpose. Non-positive
// values fall back to DefaultRequests and DefaultWindow.
func NewLimiter(client *redis.Client, requests int, window time.Duration) *Limiter {
	if requests <= 0 {
		requests = DefaultRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{client: client, requests: requests, window: window}
}

func ipKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", purpose, ip)
}

// CheckIPRateLimitWithPurpose reports whether ip has used up its allowance
// for purpose in the current window. It does not count the request.
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	count, err := l.client.Get(ctx, ipKey(ip, purpose)).Int()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to read rate limit counter: %w", err)
	}
	return count >= l.requests, nil
}

// RecordIPRequestWithPurpose counts one request. The window starts with the
// first request recorded in it.
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	key := ipKey(ip, purpose)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}
	return nil
}

// Reset clears the counter for ip and purpose.
func (l *Limiter) Reset(ctx context.Context, ip, purpose string) error {
	return l.client.Del(ctx, ipKey(ip, purpose)).Err()
}
