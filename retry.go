package qkernel

import (
	"context"
	"time"
)

// RetryStrategy defines the interface for retry delay behavior.
type RetryStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements RetryStrategy
type ExponentialBackoff struct {
	Initial time.Duration
}

// NextDelay doubles the initial delay per attempt, saturating once another
// doubling would overflow so long waits never produce a negative duration.
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := eb.Initial
	for i := 1; i < attempt; i++ {
		doubled := delay * 2
		if doubled <= delay {
			return delay
		}
		delay = doubled
	}
	return delay
}

// RetryPolicy describes caller-side resubmission behavior. The pipeline
// itself never retries: hardware queue semantics vary too much for a
// built-in policy, so resubmission is an explicit caller decision.
type RetryPolicy struct {
	MaxAttempts int
	Strategy    RetryStrategy
	Filter      func(error) bool
}

/*
Retry runs fn up to the policy's attempt budget, sleeping between attempts
per the strategy. Intended for wrapping whole-batch operations such as
KernelEstimator.Estimate, whose all-or-nothing semantics make blind
resubmission safe. Non-retryable errors (see IsRetryable) stop immediately.
*/
func Retry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	filter := policy.Filter
	if filter == nil {
		filter = IsRetryable
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(policy.Strategy.NextDelay(attempt - 1)):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !filter(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
