package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/besotti/retryable/ratelimit"
)

func TestFromRate(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(5*time.Millisecond), 1)
	w := ratelimit.FromRate(limiter)

	start := time.Now()
	w.Acquire()
	w.Acquire()
	w.Acquire()

	// the first event is free; the next two pace out
	assert.GreaterOrEqual(t, time.Since(start), 8*time.Millisecond)
}
