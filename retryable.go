package retryable

import (
	"context"
	"errors"
	"time"

	"github.com/besotti/retryable/ratelimit"
)

// Func is a retryable operation without a result. The supplied context
// is cancelled when the invocation is aborted or the attempt times
// out; an operation that ignores it keeps running, but its outcome is
// discarded once the engine has moved on.
type Func func(ctx context.Context) error

// ValueFunc is a retryable operation producing a result.
type ValueFunc[T any] func(ctx context.Context) (T, error)

// Do runs fn until it succeeds, retries are exhausted, the time budget
// is spent, or the invocation is cancelled. The returned error is the
// operation's own final error, ErrBudgetExceeded, the cancellation
// cause, or ErrInvalidConfig.
func Do(ctx context.Context, fn Func, opts ...Option) error {
	_, err := run(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	}, opts)
	return err
}

// DoValue is Do for operations that produce a result. On the result
// path (see RetryIfResult), exhausting retries returns the last result
// with a nil error.
func DoValue[T any](ctx context.Context, fn ValueFunc[T], opts ...Option) (T, error) {
	res, err := run(ctx, func(ctx context.Context) (any, error) {
		v, err := fn(ctx)
		return v, err
	}, opts)
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

// Policy is a reusable bundle of options, meant to be wired up once
// and injected wherever retries happen. Safe for concurrent use; each
// call resolves its own configuration.
type Policy struct {
	opts []Option
}

// New creates a Policy from the given options.
func New(opts ...Option) *Policy {
	return &Policy{opts: opts}
}

// Default returns a general-purpose policy: three retries with capped,
// jittered exponential backoff.
func Default() *Policy {
	return New(
		WithMaxRetries(DefaultMaxRetries),
		WithBackoff(WithJitter(0.2, WithCap(10*time.Second, Exponential(100*time.Millisecond)))),
	)
}

// Do runs fn under this policy. Call-site options apply on top of the
// policy's own.
func (p *Policy) Do(ctx context.Context, fn Func, opts ...Option) error {
	return Do(ctx, fn, p.with(opts)...)
}

// Options returns the policy's options plus any extras, for use with
// the generic entry points:
//
//	v, err := retryable.DoValue(ctx, fetch, policy.Options()...)
func (p *Policy) Options(extra ...Option) []Option {
	return p.with(extra)
}

func (p *Policy) with(extra []Option) []Option {
	merged := make([]Option, 0, len(p.opts)+len(extra))
	merged = append(merged, p.opts...)
	return append(merged, extra...)
}

func run(ctx context.Context, op func(context.Context) (any, error), opts []Option) (any, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg.execute(ctx, op)
}

// execute is the attempt loop. Each pass checks the budget, assembles
// the attempt's cancellation context, takes a rate-limit permit, races
// the operation against cancellation, and either finishes or waits and
// goes around.
func (c *config) execute(ctx context.Context, op func(context.Context) (any, error)) (any, error) {
	start := c.clock.Now()
	var deadline time.Time
	if c.hasBudget {
		deadline = start.Add(c.budget)
	}

	ctx, release := Merge(ctx, c.signals...)
	defer release()

	limiter := c.limiter
	if limiter == nil && c.rate != nil {
		limiter = ratelimit.New(*c.rate)
	}

	var invocations, retries, resultRetries int
	for {
		if !deadline.IsZero() && !c.clock.Now().Before(deadline) {
			c.giveUp(ctx, invocations, ErrBudgetExceeded)
			return nil, ErrBudgetExceeded
		}

		attemptCtx, cancelAttempt := ctx, context.CancelFunc(func() {})
		if c.timeout > 0 {
			attemptCtx, cancelAttempt = context.WithTimeout(ctx, c.timeout)
		}
		if attemptCtx.Err() != nil {
			cause := context.Cause(attemptCtx)
			cancelAttempt()
			return nil, cause
		}

		// The permit wait is deliberately not interruptible; a signal
		// firing during it is observed right after, before the
		// operation runs.
		if limiter != nil {
			limiter.Acquire()
		}

		invocations++
		result, err, lost := race(attemptCtx, op)
		if lost || (err != nil && attemptCtx.Err() != nil) {
			cause := context.Cause(attemptCtx)
			cancelAttempt()
			return nil, cause
		}
		cancelAttempt()

		if err == nil {
			if c.resultCond != nil && c.resultCond(result) && resultRetries < c.maxRetries {
				resultRetries++
				if !c.wait(ctx, Delay{Attempt: resultRetries, Result: result}, deadline, 0) {
					return result, nil
				}
				continue
			}
			return result, nil
		}

		var terminal *stopError
		if errors.As(err, &terminal) {
			final := terminal.Unwrap()
			c.giveUp(ctx, invocations, final)
			return nil, final
		}

		if (c.condition != nil && !c.condition(err)) || retries >= c.maxRetries {
			c.giveUp(ctx, invocations, err)
			return nil, err
		}

		retries++
		c.notifyRetry(ctx, retries, err)
		hint, _ := HintFromError(err)
		if !c.wait(ctx, Delay{Attempt: retries, Err: err}, deadline, hint) {
			c.giveUp(ctx, invocations, err)
			return nil, err
		}
	}
}

type attemptResult struct {
	value any
	err   error
}

// race runs op against the attempt context; whichever settles first
// decides the attempt. The loser is abandoned, not interrupted: op
// keeps running with its cancelled context and delivers into a
// buffered channel that nothing reads, so the goroutine exits cleanly
// and its outcome is discarded.
func race(ctx context.Context, op func(context.Context) (any, error)) (any, error, bool) {
	done := make(chan attemptResult, 1)
	go func() {
		value, err := op(ctx)
		done <- attemptResult{value: value, err: err}
	}()
	select {
	case r := <-done:
		return r.value, r.err, false
	case <-ctx.Done():
		return nil, nil, true
	}
}

func (c *config) notifyRetry(ctx context.Context, attempt int, err error) {
	c.logger.Debug().Int("attempt", attempt).Err(err).Msg("retrying operation")
	if c.onRetry == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	c.onRetry(ctx, attempt, err)
}

func (c *config) giveUp(ctx context.Context, attempts int, err error) {
	c.logger.Warn().Int("attempts", attempts).Err(err).Msg("giving up")
	if c.onGiveUp == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	c.onGiveUp(ctx, attempts, err)
}
