package retryable

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff computes the base delay before a given retry. Attempt numbers
// start at 1 for the first retry. The engine sleeps the returned
// duration through its Clock; overrides and server hints can only
// extend the resulting wait, never shorten it below zero.
type Backoff interface {
	Delay(attempt int) time.Duration
}

// BackoffFunc adapts a plain function to the Backoff interface.
type BackoffFunc func(attempt int) time.Duration

// Delay implements Backoff.
func (f BackoffFunc) Delay(attempt int) time.Duration {
	return f(attempt)
}

// Constant waits the same duration before every retry.
func Constant(d time.Duration) Backoff {
	return BackoffFunc(func(int) time.Duration {
		return d
	})
}

// Linear waits base * attempt.
func Linear(base time.Duration) Backoff {
	return BackoffFunc(func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		return base * time.Duration(attempt)
	})
}

// Exponential doubles the wait on every retry: base * 2^(attempt-1).
func Exponential(base time.Duration) Backoff {
	return BackoffFunc(func(attempt int) time.Duration {
		if attempt <= 1 {
			return base
		}
		// 2^62 alone overflows time.Duration
		if attempt > 62 {
			return time.Duration(math.MaxInt64)
		}
		factor := time.Duration(1 << uint(attempt-1))
		d := base * factor
		if d/factor != base {
			// multiplication wrapped around
			return time.Duration(math.MaxInt64)
		}
		return d
	})
}

// WithCap limits the delay produced by b to at most max.
func WithCap(max time.Duration, b Backoff) Backoff {
	return BackoffFunc(func(attempt int) time.Duration {
		return min(b.Delay(attempt), max)
	})
}

// WithMin raises the delay produced by b to at least floor.
func WithMin(floor time.Duration, b Backoff) Backoff {
	return BackoffFunc(func(attempt int) time.Duration {
		return max(b.Delay(attempt), floor)
	})
}

// WithJitter spreads the delay produced by b by ±factor, where factor
// is a fraction in (0, 1]. Factors outside that range leave the delay
// untouched. The result never goes below zero.
func WithJitter(factor float64, b Backoff) Backoff {
	return BackoffFunc(func(attempt int) time.Duration {
		d := b.Delay(attempt)
		if factor <= 0 || factor > 1 {
			return d
		}
		spread := (rand.Float64()*2 - 1) * factor * float64(d)
		jittered := time.Duration(float64(d) + spread)
		if jittered < 0 {
			return 0
		}
		return jittered
	})
}
