package throttle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func stores(t *testing.T) map[string]Store {
	rs, _ := newRedisStore(t)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  rs,
	}
}

func ok(context.Context) error { return nil }

func TestAttemptThrottlesWithinWindow(t *testing.T) {
	t0 := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := Key("tenant-1", "+15550001")

			d, err := store.Attempt(ctx, key, t0, DefaultWindow, ok)
			require.NoError(t, err)
			assert.True(t, d.Allowed)

			d, err = store.Attempt(ctx, key, t0.Add(5*time.Minute), DefaultWindow, ok)
			require.NoError(t, err)
			assert.False(t, d.Allowed)
			assert.True(t, d.NextEligibleAt.Equal(t0.Add(DefaultWindow)))

			d, err = store.Attempt(ctx, key, t0.Add(DefaultWindow), DefaultWindow, ok)
			require.NoError(t, err)
			assert.True(t, d.Allowed, "window boundary is inclusive")
		})
	}
}

func TestAttemptIsScopedPerContact(t *testing.T) {
	t0 := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			d, err := store.Attempt(ctx, Key("tenant-1", "lead-a"), t0, DefaultWindow, ok)
			require.NoError(t, err)
			assert.True(t, d.Allowed)

			d, err = store.Attempt(ctx, Key("tenant-1", "lead-b"), t0, DefaultWindow, ok)
			require.NoError(t, err)
			assert.True(t, d.Allowed)

			d, err = store.Attempt(ctx, Key("tenant-2", "lead-a"), t0, DefaultWindow, ok)
			require.NoError(t, err)
			assert.True(t, d.Allowed)
		})
	}
}

func TestAttemptSendFailureLeavesStateIdle(t *testing.T) {
	t0 := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	boom := errors.New("smtp down")

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := Key("tenant-1", "lead")

			_, err := store.Attempt(ctx, key, t0, DefaultWindow, func(context.Context) error { return boom })
			assert.ErrorIs(t, err, boom)

			d, err := store.Attempt(ctx, key, t0.Add(time.Minute), DefaultWindow, ok)
			require.NoError(t, err)
			assert.True(t, d.Allowed)
		})
	}
}

func TestAttemptConcurrentSingleSend(t *testing.T) {
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			var (
				sent int32
				wg   sync.WaitGroup
			)

			for i := 0; i < 25; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := store.Attempt(context.Background(), Key("t", "c"), now, DefaultWindow, func(context.Context) error {
						atomic.AddInt32(&sent, 1)
						time.Sleep(2 * time.Millisecond)
						return nil
					})
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(1), atomic.LoadInt32(&sent))
		})
	}
}

func TestRedisStoreStateExpiresWithWindow(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	now := time.Now()

	_, err := store.Attempt(ctx, Key("t", "c"), now, DefaultWindow, ok)
	require.NoError(t, err)

	assert.True(t, mr.Exists("throttle:t|c:last"))
	assert.False(t, mr.Exists("throttle:t|c:lock"))
	assert.Equal(t, DefaultWindow, mr.TTL("throttle:t|c:last"))

	mr.FastForward(DefaultWindow)
	assert.False(t, mr.Exists("throttle:t|c:last"))
}

func TestRedisStoreLockHeldElsewhere(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set("throttle:t|c:lock", "other-instance"))

	called := false
	d, err := store.Attempt(context.Background(), Key("t", "c"), time.Now(), DefaultWindow, func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.False(t, called)

	got, _ := mr.Get("throttle:t|c:lock")
	assert.Equal(t, "other-instance", got)
}

func TestRedisStoreSendOutlivingLockStaysThrottled(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	key := Key("t", "c")
	t0 := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

	var (
		sends        int
		innerAllowed bool
	)
	d, err := store.Attempt(ctx, key, t0, DefaultWindow, func(context.Context) error {
		sends++
		// The lock expires while this send is still in flight.
		mr.FastForward(defaultLockTTL + time.Second)

		inner, err := store.Attempt(ctx, key, t0.Add(16*time.Second), DefaultWindow, func(context.Context) error {
			sends++
			return nil
		})
		require.NoError(t, err)
		innerAllowed = inner.Allowed
		return nil
	})
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	assert.Equal(t, 1, sends)
	assert.False(t, innerAllowed)
}

func TestRedisStoreFailedSendRollsBackReservation(t *testing.T) {
	store, mr := newRedisStore(t)
	t0 := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

	_, err := store.Attempt(context.Background(), Key("t", "c"), t0, DefaultWindow, func(context.Context) error {
		assert.True(t, mr.Exists("throttle:t|c:last"), "reserved before send")
		return errors.New("broker down")
	})
	require.Error(t, err)
	assert.False(t, mr.Exists("throttle:t|c:last"))
}

func TestRedisStoreBoundsSendDuration(t *testing.T) {
	store, _ := newRedisStore(t)

	var deadline time.Time
	var hasDeadline bool
	start := time.Now()
	_, err := store.Attempt(context.Background(), Key("t", "c"), start, DefaultWindow, func(ctx context.Context) error {
		deadline, hasDeadline = ctx.Deadline()
		return nil
	})
	require.NoError(t, err)

	require.True(t, hasDeadline)
	assert.True(t, deadline.Before(start.Add(defaultLockTTL)))
}

func TestMemoryStoreDropsStaleEntries(t *testing.T) {
	store := NewMemoryStore()
	t0 := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

	_, err := store.Attempt(context.Background(), "k", t0, DefaultWindow, ok)
	require.NoError(t, err)

	_, err = store.Attempt(context.Background(), "k", t0.Add(time.Hour), DefaultWindow, func(context.Context) error {
		return errors.New("fail")
	})
	require.Error(t, err)

	_, found := store.LastAlertAt("k")
	assert.False(t, found)
}

func TestMemoryStoreSweepsIdleKeys(t *testing.T) {
	store := NewMemoryStore()
	t0 := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

	_, err := store.Attempt(context.Background(), Key("t", "a"), t0, DefaultWindow, ok)
	require.NoError(t, err)

	// A different contact's attempt clears "a" once its window has passed.
	_, err = store.Attempt(context.Background(), Key("t", "b"), t0.Add(DefaultWindow+time.Minute), DefaultWindow, ok)
	require.NoError(t, err)

	_, found := store.LastAlertAt(Key("t", "a"))
	assert.False(t, found)
	_, found = store.LastAlertAt(Key("t", "b"))
	assert.True(t, found)
}
