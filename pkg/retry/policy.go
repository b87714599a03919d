package retry

import (
	"errors"
	"fmt"
	"time"
)

// ErrMaxAttemptsExceeded marks an error returned after the retry budget
// is exhausted. The last operation error is wrapped alongside it.
var ErrMaxAttemptsExceeded = errors.New("max attempts exceeded")

// Policy configures a bounded retry loop with exponential backoff.
type Policy struct {
	// MaxAttempts bounds the total number of operation invocations,
	// including the first one.
	MaxAttempts int
	// BaseDelay is the backoff before the first retry; it doubles on
	// every subsequent retry.
	BaseDelay time.Duration
	// MaxDelay caps the backoff growth. Zero means uncapped.
	MaxDelay time.Duration
	// RetryableFunc classifies errors. Nil means retry everything.
	RetryableFunc func(error) bool
}

// Validate checks policy invariants.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("base delay must be non-negative, got %s", p.BaseDelay)
	}
	if p.MaxDelay < 0 {
		return fmt.Errorf("max delay must be non-negative, got %s", p.MaxDelay)
	}
	return nil
}

// Delay returns the backoff before the given retry (1-based). Delays
// strictly double until capped by MaxDelay.
func (p Policy) Delay(retry int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < retry; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}
