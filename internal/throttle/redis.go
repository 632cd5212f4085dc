package throttle

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL = 15 * time.Second

	// SendBudget bounds a single send so it finishes well inside the lock.
	SendBudget = 10 * time.Second
)

// compareDelete removes KEYS[1] only while it still holds ARGV[1].
var compareDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore shares throttle state across instances. A short-lived lock key
// wraps check and reserve. The state key is written before send and rolled
// back if send fails, so a send that outlives the lock still blocks other
// instances. The state key expires after one window.
type RedisStore struct {
	client  *redis.Client
	lockTTL time.Duration
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, lockTTL: defaultLockTTL}
}

func (s *RedisStore) stateKey(key string) string {
	return fmt.Sprintf("throttle:%s:last", key)
}

func (s *RedisStore) lockKey(key string) string {
	return fmt.Sprintf("throttle:%s:lock", key)
}

func (s *RedisStore) Attempt(ctx context.Context, key string, now time.Time, window time.Duration, send func(ctx context.Context) error) (Decision, error) {
	token := uuid.NewString()

	acquired, err := s.client.SetNX(ctx, s.lockKey(key), token, s.lockTTL).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to acquire throttle lock: %w", err)
	}
	if !acquired {
		// Another instance is sending for this contact right now.
		return Decision{NextEligibleAt: now.Add(window)}, nil
	}
	defer s.release(key, token)

	last, err := s.lastAlertAt(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	if throttled(last, now, window) {
		return Decision{LastAlertAt: last, NextEligibleAt: last.Add(window)}, nil
	}

	mark := strconv.FormatInt(now.UnixMilli(), 10)
	if err := s.client.Set(ctx, s.stateKey(key), mark, window).Err(); err != nil {
		return Decision{}, fmt.Errorf("failed to reserve throttle state: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendBudget())
	err = send(sendCtx)
	cancel()
	if err != nil {
		s.rollback(key, mark)
		return Decision{Allowed: true}, err
	}

	return Decision{Allowed: true, LastAlertAt: now, NextEligibleAt: now.Add(window)}, nil
}

func (s *RedisStore) sendBudget() time.Duration {
	if SendBudget < s.lockTTL {
		return SendBudget
	}
	return s.lockTTL * 2 / 3
}

// rollback clears a reservation left by a failed send, unless a later
// attempt has already replaced it.
func (s *RedisStore) rollback(key, mark string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	compareDelete.Run(ctx, s.client, []string{s.stateKey(key)}, mark)
}

func (s *RedisStore) lastAlertAt(ctx context.Context, key string) (time.Time, error) {
	raw, err := s.client.Get(ctx, s.stateKey(key)).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read throttle state: %w", err)
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt throttle state %q: %w", raw, err)
	}
	return time.UnixMilli(ms), nil
}

func (s *RedisStore) release(key, token string) {
	// The caller's ctx may already be cancelled; the lock must still go.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	compareDelete.Run(ctx, s.client, []string{s.lockKey(key)}, token)
}
