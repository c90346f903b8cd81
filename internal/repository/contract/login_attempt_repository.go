package contract

import (
	"context"
	"time"
)

// LoginAttempt is the failed-login window of one client address.
type LoginAttempt struct {
	Count        int
	FirstAttempt time.Time
}

type LoginAttemptRepository interface {
	// Get returns the current window, ok=false when none is open.
	Get(ctx context.Context, key string) (LoginAttempt, bool, error)
	// Increment records one attempt, opening a window of length window if needed.
	Increment(ctx context.Context, key string, window time.Duration) (LoginAttempt, error)
	Reset(ctx context.Context, key string) error
}
