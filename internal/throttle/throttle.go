// Package throttle keeps the last-alert timestamp per (tenant, contact) and
// guarantees that check, send and mark happen as one step per key.
package throttle

import (
	"context"
	"time"
)

const DefaultWindow = 30 * time.Minute

type Decision struct {
	Allowed        bool
	LastAlertAt    time.Time
	NextEligibleAt time.Time
}

// Store runs send only when key has been idle for at least window as of
// now. A successful send leaves the key marked with now. A send error is
// returned unchanged and leaves the key as it was before the attempt.
// Stores may mark the key before send and undo it on failure.
type Store interface {
	Attempt(ctx context.Context, key string, now time.Time, window time.Duration, send func(ctx context.Context) error) (Decision, error)
}

func Key(tenantID, contact string) string {
	return tenantID + "|" + contact
}

func throttled(last time.Time, now time.Time, window time.Duration) bool {
	return !last.IsZero() && now.Sub(last) < window
}
