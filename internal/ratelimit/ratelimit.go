package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter caps inbound messages per tenant in fixed hourly buckets.
type RateLimiter struct {
	client *redis.Client
	now    func() time.Time
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

func (rl *RateLimiter) key(tenantID string, t time.Time) string {
	return fmt.Sprintf("ratelimit:tenant:%s:%s", tenantID, t.UTC().Format("2006-01-02-15"))
}

// Allow counts one message against the current hour. A non-positive limit
// means unlimited.
func (rl *RateLimiter) Allow(ctx context.Context, tenantID string, limit int) (bool, error) {
	if limit <= 0 {
		return true, nil
	}

	key := rl.key(tenantID, rl.now())

	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}

	if count == 1 {
		rl.client.Expire(ctx, key, time.Hour)
	}

	return count <= int64(limit), nil
}
