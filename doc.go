// Package retryable wraps a single fallible operation in configurable
// retry behavior: attempt limits, per-attempt timeouts, a total
// elapsed-time budget, external cancellation, error and result
// filters, token-bucket rate limiting, and inter-attempt delays that
// honor server-supplied Retry-After style hints.
//
// # Quick Start
//
// One-off retries use the package-level Do:
//
//	err := retryable.Do(ctx, func(ctx context.Context) error {
//	    return client.Call(ctx)
//	})
//
// Operations with results use DoValue:
//
//	user, err := retryable.DoValue(ctx, func(ctx context.Context) (*User, error) {
//	    return store.Get(ctx, id)
//	})
//
// Reusable policies are built once and injected:
//
//	policy := retryable.New(
//	    retryable.WithMaxRetries(5),
//	    retryable.WithTimeout(2*time.Second),
//	    retryable.WithBackoff(retryable.Exponential(100*time.Millisecond)),
//	)
//
//	err := policy.Do(ctx, call, retryable.If(isTransient))
//	user, err := retryable.DoValue(ctx, fetch, policy.Options()...)
//
// # Attempt Lifecycle
//
// Each attempt checks the elapsed-time budget, assembles a
// cancellation context (the caller's context, any WithSignals
// contexts, and a fresh per-attempt timeout), takes a rate-limit
// permit if one is configured, and races the operation against
// cancellation. Failures consult the If condition and the retry
// allowance, then wait out the base backoff extended by any
// WithOverride hook or server hint before going around.
//
// The final error is the operation's own error once retries are
// disallowed or exhausted, ErrBudgetExceeded when the budget is spent
// before an attempt can start, the cancellation cause
// (context.Canceled or context.DeadlineExceeded) when a signal wins
// the race, or ErrInvalidConfig for unusable option values.
//
// # Server Hints
//
// When a failing attempt's error carries retry timing - an explicit
// RetryAfter method, a retained *http.Response or http.Header with
// Retry-After or X-RateLimit-Reset headers, or a bare 429/503 status -
// the engine treats the extracted delay as a floor for the next wait.
// See HintFromError for the recognized shapes and their priority.
//
// # Result Retries
//
// RetryIfResult retries operations that succeed with an unsatisfactory
// result, sharing the WithMaxRetries allowance. Running out of result
// retries is not a failure: the last result is returned with a nil
// error.
//
//	v, err := retryable.DoValue(ctx, poll,
//	    retryable.RetryIfResult(func(v any) bool {
//	        return v.(*Job).State == Pending
//	    }),
//	)
//
// # Rate Limiting
//
// Attempts can be paced through a token bucket. Share one across
// invocations for cross-call fairness, or configure one inline:
//
//	bucket := ratelimit.New(ratelimit.Config{Tokens: 10, Interval: time.Second})
//	err := retryable.Do(ctx, call, retryable.WithLimiter(bucket))
//
//	err = retryable.Do(ctx, call, retryable.WithRateLimit(ratelimit.Config{
//	    Tokens:   2,
//	    Interval: time.Second,
//	    Jitter:   ratelimit.JitterEqual,
//	}))
//
// Permit waits are not interruptible; cancellation is observed
// immediately after the wait, before the operation runs.
//
// # Time Budgets
//
// WithMaxElapsed bounds the whole invocation. No wait is started at or
// past the cap; when the remaining budget cannot cover a pending wait
// the engine finishes with the outcome it already has. A budget that
// is spent before any attempt can start surfaces ErrBudgetExceeded.
//
// # Hooks and Logging
//
// OnRetry observes each counted retry and OnGiveUp the final failure.
// Hook panics are swallowed; they never change the outcome. Structured
// logging of the same events is available via WithLogger:
//
//	err := retryable.Do(ctx, call, retryable.WithLogger(log))
//
// # Testing
//
// Inject a Clock to drive the engine without real sleeps; every wait
// (backoff, override extension) goes through it. See the package tests
// for a recording fake.
package retryable
