package qkernel

import (
	"context"
	"sync"
	"time"
)

/*
RateLimiter is a token-bucket gate in front of batch submissions. Shared
devices commonly throttle job creation; consuming one token per chunk
keeps submissions at a sustainable rate while still allowing short bursts
when the bucket is full.
*/
type RateLimiter struct {
	tokens     int           // Current number of available tokens
	maxTokens  int           // Maximum token capacity
	refillRate time.Duration // Time between token replenishments
	lastRefill time.Time     // Last time tokens were added
	mu         sync.Mutex
}

// NewRateLimiter creates a limiter with the given burst capacity and
// replenishment interval. Non-positive capacities and intervals are coerced
// to one token and one second.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	if maxTokens < 1 {
		maxTokens = 1
	}
	if refillRate <= 0 {
		refillRate = time.Second
	}

	now := time.Now()
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: now.Add(-refillRate), // Start with a full refill period elapsed
	}
}

// Allow consumes a token if one is available and reports whether the
// submission may proceed.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or the context is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		if rl.Allow() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rl.refillRate / 4):
		}
	}
}

/*
refill adds tokens proportional to the time elapsed since the last refill,
up to the bucket capacity. Rounds to the nearest whole period so the
effective rate stays accurate over time.

Thread-safety: assumes the caller holds the mutex.
*/
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)

	elapsedNs := elapsed.Nanoseconds()
	refillRateNs := rl.refillRate.Nanoseconds()

	tokensToAdd := (elapsedNs + (refillRateNs / 2)) / refillRateNs
	if tokensToAdd > 0 {
		rl.tokens = min(rl.maxTokens, rl.tokens+int(tokensToAdd))
		// Only move lastRefill forward by the number of complete periods.
		rl.lastRefill = rl.lastRefill.Add(time.Duration(tokensToAdd) * rl.refillRate)
	}
}
