package retryable

import (
	"context"
	"time"
)

// Clock abstracts wall-clock reads and sleeps so tests can drive the
// engine without real delays. Every wait the engine performs goes
// through the configured Clock.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is cancelled, returning the
	// context error in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return ctx.Err()
	}
}
