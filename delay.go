package retryable

import (
	"context"
	"time"
)

// wait runs the inter-attempt delay: the base backoff first, then any
// extension requested by the override hook or the server hint. It
// reports false when the remaining budget is insufficient, in which
// case the caller finalizes with its pending outcome instead of
// retrying. deadline is zero when no budget is configured; hint is the
// minimum delay extracted from the failing error, zero when absent.
//
// The base wait is measured by the clock and surfaced to the override
// as Delay.Suggested, so the override contract does not depend on the
// backoff's exact arithmetic. The override's target, floored by the
// hint, is satisfied by sleeping only the difference beyond what was
// already waited; targets at or below the measured wait are no-ops.
func (c *config) wait(ctx context.Context, d Delay, deadline time.Time, hint time.Duration) bool {
	within := func() bool {
		return deadline.IsZero() || c.clock.Now().Before(deadline)
	}
	if !within() {
		return false
	}

	var waited time.Duration
	if c.backoff != nil {
		begin := c.clock.Now()
		_ = c.clock.Sleep(ctx, c.backoff.Delay(d.Attempt))
		waited = c.clock.Now().Sub(begin)
	}
	d.Suggested = waited

	target := waited
	if c.override != nil {
		if got, ok := callOverride(c.override, d); ok && got >= 0 {
			target = got
		}
	}
	if hint > target {
		target = hint
	}

	extra := target - waited
	if extra <= 0 {
		return within()
	}
	if !deadline.IsZero() && !c.clock.Now().Add(extra).Before(deadline) {
		return false
	}
	_ = c.clock.Sleep(ctx, extra)
	return within()
}

// callOverride shields the engine from a panicking hook; a panic keeps
// the base wait unchanged.
func callOverride(fn OverrideFunc, d Delay) (target time.Duration, ok bool) {
	defer func() {
		if recover() != nil {
			target, ok = 0, false
		}
	}()
	return fn(d), true
}
