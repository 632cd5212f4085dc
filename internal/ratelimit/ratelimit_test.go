package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateLimiter(client), mr
}

func TestAllow(t *testing.T) {
	rl, mr := newLimiter(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 4, 10, 15, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, "t1", 3)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := rl.Allow(ctx, "t1", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = rl.Allow(ctx, "t2", 3)
	require.NoError(t, err)
	assert.True(t, ok, "buckets are per tenant")

	assert.Equal(t, time.Hour, mr.TTL("ratelimit:tenant:t1:2025-03-04-10"))

	now = now.Add(time.Hour)
	ok, err = rl.Allow(ctx, "t1", 3)
	require.NoError(t, err)
	assert.True(t, ok, "next hour starts a new bucket")
}

func TestAllowUnlimited(t *testing.T) {
	rl, mr := newLimiter(t)
	ok, err := rl.Allow(context.Background(), "t1", 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, mr.Keys())
}

func TestAllowRedisDown(t *testing.T) {
	rl, mr := newLimiter(t)
	mr.Close()
	_, err := rl.Allow(context.Background(), "t1", 5)
	assert.Error(t, err)
}
