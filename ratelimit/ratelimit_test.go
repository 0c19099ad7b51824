package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harness pins the bucket to a controllable clock. By default sleeping
// advances the clock, mimicking a quiet bucket; tests override sleep to
// model contention.
type harness struct {
	now   time.Time
	slept []time.Duration
}

func newHarness(b *Bucket) *harness {
	h := &harness{now: time.Unix(0, 0)}
	b.now = func() time.Time { return h.now }
	b.sleep = func(d time.Duration) {
		h.slept = append(h.slept, d)
		h.now = h.now.Add(d)
	}
	b.last = h.now
	return h
}

func TestBucketAcquire(t *testing.T) {
	t.Run("admits capacity immediately then delays", func(t *testing.T) {
		b := New(Config{Tokens: 2, Interval: time.Second})
		h := newHarness(b)

		b.Acquire()
		b.Acquire()
		assert.Empty(t, h.slept, "first two acquisitions must not wait")

		b.Acquire()
		require.Len(t, h.slept, 1)
		assert.LessOrEqual(t, h.slept[0], time.Second)
		assert.Positive(t, h.slept[0])
	})

	t.Run("wait ends at the next refill boundary", func(t *testing.T) {
		b := New(Config{Tokens: 1, Interval: time.Second})
		h := newHarness(b)

		b.Acquire()
		h.now = h.now.Add(300 * time.Millisecond)
		b.Acquire()

		require.Len(t, h.slept, 1)
		assert.Equal(t, 700*time.Millisecond, h.slept[0])
	})

	t.Run("tokens never exceed capacity after idle time", func(t *testing.T) {
		b := New(Config{Tokens: 2, Interval: time.Second})
		h := newHarness(b)

		h.now = h.now.Add(5 * time.Second)
		assert.Equal(t, 2.0, b.Available())
	})

	t.Run("no refill before a full interval", func(t *testing.T) {
		b := New(Config{Tokens: 2, Interval: time.Second})
		h := newHarness(b)

		b.Acquire()
		b.Acquire()
		h.now = h.now.Add(900 * time.Millisecond)
		assert.Equal(t, 0.0, b.Available())
	})

	t.Run("refill preserves the sub-interval remainder", func(t *testing.T) {
		b := New(Config{Tokens: 1, Interval: time.Second})
		h := newHarness(b)

		b.Acquire()
		h.now = h.now.Add(1500 * time.Millisecond)
		assert.Equal(t, 1.0, b.Available())
		// only one whole interval was consumed; the odd 500ms still
		// counts toward the next one
		assert.Equal(t, time.Unix(1, 0), b.last)
	})

	t.Run("defaults applied for zero config", func(t *testing.T) {
		b := New(Config{})
		assert.Equal(t, 1.0, b.capacity)
		assert.Equal(t, time.Second, b.interval)
	})
}

func TestBucketNegativeBalance(t *testing.T) {
	b := New(Config{Tokens: 1, Interval: time.Second})
	h := newHarness(b)
	// a sleep that does not advance time models another caller draining
	// the refill first
	b.sleep = func(d time.Duration) {
		h.slept = append(h.slept, d)
	}

	b.Acquire()
	b.Acquire()

	// the post-wait decrement is unconditional, so the balance dips
	// below zero until a later refill repays it
	b.mu.Lock()
	assert.Equal(t, -1.0, b.tokens)
	b.mu.Unlock()

	h.now = h.now.Add(2 * time.Second)
	assert.Equal(t, 1.0, b.Available())
}

func TestBucketJitter(t *testing.T) {
	base := time.Second

	t.Run("none is exact", func(t *testing.T) {
		b := New(Config{Jitter: JitterNone})
		assert.Equal(t, base, b.jittered(base))
	})

	t.Run("full spans the whole interval", func(t *testing.T) {
		b := New(Config{Jitter: JitterFull})
		for _, r := range []float64{0, 0.25, 0.5, 0.999} {
			b.randf = func() float64 { return r }
			d := b.jittered(base)
			assert.GreaterOrEqual(t, d, time.Duration(0))
			assert.Less(t, d, base)
		}
	})

	t.Run("equal spans the upper half", func(t *testing.T) {
		b := New(Config{Jitter: JitterEqual})
		for _, r := range []float64{0, 0.25, 0.5, 0.999} {
			b.randf = func() float64 { return r }
			d := b.jittered(base)
			assert.GreaterOrEqual(t, d, base/2)
			assert.Less(t, d, base)
		}
	})
}

func TestBucketConcurrentAcquire(t *testing.T) {
	b := New(Config{Tokens: 4, Interval: 10 * time.Millisecond})

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Acquire()
		}()
	}
	wg.Wait()

	// no admission-count guarantee under contention; this pins only
	// that concurrent use is safe and terminates
	assert.LessOrEqual(t, b.Available(), b.capacity)
}
