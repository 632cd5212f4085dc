package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/HanTheDev/lead-signal-pipeline/internal/keylock"
)

// MemoryStore is the single-process store. State is lost on restart.
type MemoryStore struct {
	locks *keylock.Map

	mu        sync.Mutex
	last      map[string]time.Time
	lastSweep time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locks: keylock.New(),
		last:  make(map[string]time.Time),
	}
}

func (s *MemoryStore) Attempt(ctx context.Context, key string, now time.Time, window time.Duration, send func(ctx context.Context) error) (Decision, error) {
	unlock := s.locks.Lock(key)
	defer unlock()

	s.mu.Lock()
	last, ok := s.last[key]
	if ok && !throttled(last, now, window) {
		delete(s.last, key)
		last = time.Time{}
	}
	s.sweep(now, window)
	s.mu.Unlock()

	if throttled(last, now, window) {
		return Decision{LastAlertAt: last, NextEligibleAt: last.Add(window)}, nil
	}

	if err := send(ctx); err != nil {
		return Decision{Allowed: true}, err
	}

	s.mu.Lock()
	s.last[key] = now
	s.mu.Unlock()

	return Decision{Allowed: true, LastAlertAt: now, NextEligibleAt: now.Add(window)}, nil
}

// sweep drops every expired entry at most once per window. Callers hold mu.
func (s *MemoryStore) sweep(now time.Time, window time.Duration) {
	if now.Sub(s.lastSweep) < window {
		return
	}
	for k, t := range s.last {
		if !throttled(t, now, window) {
			delete(s.last, k)
		}
	}
	s.lastSweep = now
}

// LastAlertAt reports the stored timestamp for key, if any.
func (s *MemoryStore) LastAlertAt(key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.last[key]
	return t, ok
}
