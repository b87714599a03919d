// Package retry provides a bounded retry executor with exponential
// backoff. The executor keeps attempt counts and latency colocated with
// the operation result so callers can feed metrics without sharing
// mutable counters.
package retry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Result reports how an execution went, independent of its outcome.
type Result struct {
	// Attempts is the number of operation invocations performed.
	Attempts int
	// Retries is Attempts-1 when at least one invocation ran.
	Retries int
	// TotalLatency spans the first invocation to the final outcome,
	// including backoff waits.
	TotalLatency time.Duration
}

// Executor runs operations under a retry policy.
type Executor struct {
	policy Policy
	logger *zap.Logger
	// sleep is swappable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates a retry executor. It panics on an invalid policy,
// which is a programmer error caught at wiring time.
func NewExecutor(policy Policy, logger *zap.Logger) *Executor {
	if err := policy.Validate(); err != nil {
		panic(fmt.Sprintf("invalid retry policy: %v", err))
	}
	return &Executor{
		policy: policy,
		logger: logger,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do executes the operation under the policy and returns the execution
// result regardless of success, so callers can record attempt metrics.
func (e *Executor) Do(ctx context.Context, operation func(ctx context.Context) error) (Result, error) {
	start := time.Now()
	res := Result{}

	var lastErr error
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			res.TotalLatency = time.Since(start)
			return res, err
		}

		res.Attempts = attempt
		res.Retries = attempt - 1
		lastErr = operation(ctx)
		if lastErr == nil {
			res.TotalLatency = time.Since(start)
			if attempt > 1 {
				e.logger.Info("Operation succeeded after retries",
					zap.Int("attempts", attempt),
					zap.Duration("total_latency", res.TotalLatency))
			}
			return res, nil
		}

		if !e.isRetryable(lastErr) {
			e.logger.Debug("Error is not retryable",
				zap.Error(lastErr),
				zap.Int("attempt", attempt))
			res.TotalLatency = time.Since(start)
			return res, lastErr
		}

		if attempt == e.policy.MaxAttempts {
			break
		}

		backoff := e.policy.Delay(attempt)
		e.logger.Debug("Retrying operation",
			zap.Error(lastErr),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", e.policy.MaxAttempts),
			zap.Duration("backoff", backoff))

		if err := e.sleep(ctx, backoff); err != nil {
			res.TotalLatency = time.Since(start)
			return res, err
		}
	}

	res.TotalLatency = time.Since(start)
	e.logger.Warn("Max attempts exceeded",
		zap.Error(lastErr),
		zap.Int("attempts", res.Attempts),
		zap.Duration("total_latency", res.TotalLatency))
	return res, fmt.Errorf("%w: %v", ErrMaxAttemptsExceeded, lastErr)
}

func (e *Executor) isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if e.policy.RetryableFunc != nil {
		return e.policy.RetryableFunc(err)
	}
	return true
}
