// Package ratelimit implements the token-bucket pacing used by the Extract
// stage's parallel tile dispatch to respect upstream per-minute rate limits
// (§5: "a crude token-bucket; implementers may substitute a real
// token/minute limiter if the backend exposes such quotas").
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a simple token bucket.
type RateLimiter struct {
	tokens         int
	maxTokens      int
	refillRate     time.Duration
	lastRefillTime time.Time
	mu             sync.Mutex
}

// NewRateLimiter creates a bucket with maxTokens capacity, refilling one
// token every refillRate.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:         maxTokens,
		maxTokens:      maxTokens,
		refillRate:     refillRate,
		lastRefillTime: time.Now(),
	}
}

// Wait blocks until a token is available, honouring ctx cancellation.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refillLocked()
		if rl.tokens > 0 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (rl *RateLimiter) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefillTime)
	if add := int(elapsed / rl.refillRate); add > 0 {
		rl.tokens += add
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefillTime = now
	}
}

// ForConcurrency builds a bucket sized off the Extract stage's
// maxConcurrency option: one batch's worth of tokens, refilled over the
// batch's 500ms inter-batch pause floor (§5).
func ForConcurrency(maxConcurrency int) *RateLimiter {
	if maxConcurrency <= 0 {
		maxConcurrency = 3
	}
	return NewRateLimiter(maxConcurrency, 500*time.Millisecond/time.Duration(maxConcurrency))
}

// InterBatchPause is the floor on the gap between successive Extract
// batches (§5).
const InterBatchPause = 500 * time.Millisecond
