package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Waiter adapts a golang.org/x/time/rate.Limiter to the blocking
// Acquire contract used by the retryable engine. Unlike Bucket, the
// wrapped limiter enforces strict admission; use it when a process-wide
// limiter is already in place and sharing it with retries matters more
// than the bucket's loose semantics.
type Waiter struct {
	limiter *rate.Limiter
}

// FromRate wraps an x/time rate limiter.
func FromRate(l *rate.Limiter) *Waiter {
	return &Waiter{limiter: l}
}

// Acquire blocks until the wrapped limiter grants an event. The wait is
// not cancellable, matching the engine's rate-limit contract.
func (w *Waiter) Acquire() {
	// Wait only fails on context cancellation or an infeasible burst;
	// with Background and n=1 neither applies.
	_ = w.limiter.Wait(context.Background())
}
