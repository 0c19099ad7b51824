// Package ratelimit provides a token-bucket limiter for pacing retry
// attempts, plus an adapter for sharing a golang.org/x/time/rate
// limiter with the retryable engine.
package ratelimit

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Jitter selects how the wait for the next token is randomized.
type Jitter int

const (
	// JitterNone waits exactly until the next refill.
	JitterNone Jitter = iota
	// JitterFull waits a uniform random duration in [0, base).
	JitterFull
	// JitterEqual waits a uniform random duration in [base/2, base).
	JitterEqual
)

// Default bucket parameters used when Config fields are zero.
const (
	DefaultTokens   = 1
	DefaultInterval = time.Second
)

// Config describes a token bucket. Tokens is both the bucket capacity
// and the number of tokens added per Interval.
type Config struct {
	Tokens   int
	Interval time.Duration
	Jitter   Jitter
}

// Bucket is a token-bucket rate limiter. Refill is lazy: tokens are
// credited on each Acquire from elapsed wall-clock time, never by a
// background timer. A single Bucket may be shared by many concurrent
// retry invocations; callers contending for the same bucket compute
// their waits independently, so admission order is not FIFO and is
// intentionally loose under contention.
type Bucket struct {
	mu       sync.Mutex
	tokens   float64
	last     time.Time
	capacity float64
	interval time.Duration
	jitter   Jitter

	// injectable for tests
	now   func() time.Time
	sleep func(time.Duration)
	randf func() float64
}

// New creates a full bucket from cfg, applying defaults for zero fields.
func New(cfg Config) *Bucket {
	if cfg.Tokens <= 0 {
		cfg.Tokens = DefaultTokens
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	b := &Bucket{
		capacity: float64(cfg.Tokens),
		interval: cfg.Interval,
		jitter:   cfg.Jitter,
		now:      time.Now,
		sleep:    time.Sleep,
		randf:    rand.Float64,
	}
	b.tokens = b.capacity
	b.last = b.now()
	return b
}

// Acquire blocks until a token has been taken. It never fails and is
// not interruptible; callers that need cancellation should check their
// context around the call.
//
// When the bucket is empty, Acquire sleeps until the next refill and
// then takes a token unconditionally. The post-wait refill may still
// come up short under contention, letting the balance dip below zero;
// the debt is repaid by a later refill. This keeps admission loose
// rather than queued.
func (b *Bucket) Acquire() {
	b.mu.Lock()
	b.refill()
	if b.tokens > 0 {
		b.tokens--
		b.mu.Unlock()
		return
	}
	wait := b.interval - b.now().Sub(b.last)
	b.mu.Unlock()

	if wait > 0 {
		b.sleep(b.jittered(wait))
	}

	b.mu.Lock()
	b.refill()
	b.tokens--
	b.mu.Unlock()
}

// Available reports the token balance after a lazy refill. Mostly
// useful for introspection and tests; the balance may be stale by the
// time the caller acts on it.
func (b *Bucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	return b.tokens
}

// refill credits whole elapsed intervals and advances the refill
// timestamp by exactly the consumed intervals, preserving the
// sub-interval remainder. Caller must hold mu.
func (b *Bucket) refill() {
	elapsed := b.now().Sub(b.last)
	if elapsed < b.interval {
		return
	}
	intervals := elapsed / b.interval
	b.tokens += float64(intervals) * b.capacity
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.last = b.last.Add(intervals * b.interval)
}

func (b *Bucket) jittered(base time.Duration) time.Duration {
	switch b.jitter {
	case JitterFull:
		return time.Duration(b.randf() * float64(base))
	case JitterEqual:
		return time.Duration((0.5 + b.randf()/2) * float64(base))
	default:
		return base
	}
}
