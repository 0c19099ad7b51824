package retryable

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/besotti/retryable/ratelimit"
)

// Condition reports whether an error should be retried.
type Condition func(error) bool

// ResultCondition reports whether a successful result should be
// retried anyway. It receives the operation's result as any; DoValue
// callers assert back to their concrete type.
type ResultCondition func(result any) bool

// OnRetryFunc runs after a failed attempt has been counted and before
// the delay for the next one. attempt is the retry number, starting at
// 1. The effective delay is not passed because overrides and hints may
// still extend it.
type OnRetryFunc func(ctx context.Context, attempt int, err error)

// OnGiveUpFunc runs when the engine stops retrying: attempts
// exhausted, error rejected by the condition, Stop, budget spent
// before an attempt, or a wait refused for lack of budget. attempts is
// the number of operation invocations made.
type OnGiveUpFunc func(ctx context.Context, attempts int, err error)

// OverrideFunc decides the total intended wait before the next
// attempt, given what the base backoff already waited. Returning a
// negative duration keeps the base wait unchanged. The override can
// only extend the wait: when the returned target is at or below
// Suggested, no extra wait happens.
type OverrideFunc func(d Delay) time.Duration

// Delay describes one upcoming inter-attempt wait for OverrideFunc.
type Delay struct {
	// Attempt is the retry number this wait precedes, starting at 1.
	// On the result path it counts result-triggered retries instead.
	Attempt int
	// Err is the error from the attempt that triggered this wait, nil
	// on the result path.
	Err error
	// Result is the rejected result on the result path, nil otherwise.
	Result any
	// Suggested is the wall-clock time the base backoff actually
	// waited before the override was consulted.
	Suggested time.Duration
}

// Limiter paces attempts. Acquire blocks until a permit is available
// and never fails; the engine does not interrupt the wait.
type Limiter interface {
	Acquire()
}

// config holds the resolved policy for one invocation.
type config struct {
	maxRetries int
	timeout    time.Duration
	budget     time.Duration
	hasBudget  bool
	backoff    Backoff
	clock      Clock
	limiter    Limiter
	rate       *ratelimit.Config
	condition  Condition
	resultCond ResultCondition
	override   OverrideFunc
	onRetry    OnRetryFunc
	onGiveUp   OnGiveUpFunc
	signals    []context.Context
	logger     zerolog.Logger
}

// DefaultMaxRetries is the retry allowance when WithMaxRetries is not
// given: up to four invocations in total.
const DefaultMaxRetries = 3

func defaultConfig() config {
	return config{
		maxRetries: DefaultMaxRetries,
		backoff:    Exponential(100 * time.Millisecond),
		clock:      realClock{},
		logger:     zerolog.Nop(),
	}
}

func (c *config) validate() error {
	if c.maxRetries < 0 {
		return invalidConfig("max retries %d is negative", c.maxRetries)
	}
	if c.timeout < 0 {
		return invalidConfig("attempt timeout %v is negative", c.timeout)
	}
	if c.hasBudget && c.budget < 0 {
		return invalidConfig("elapsed budget %v is negative", c.budget)
	}
	return nil
}

// Option configures retry behavior, either on a Policy at wire-up or
// per call.
type Option func(*config)

// WithMaxRetries sets how many retries follow the first attempt. Zero
// means run exactly once.
func WithMaxRetries(n int) Option {
	return func(c *config) {
		c.maxRetries = n
	}
}

// WithTimeout bounds each individual attempt. The attempt's context is
// cancelled when the timeout elapses, and a lost race against it ends
// the whole run with context.DeadlineExceeded.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithMaxElapsed caps the total wall-clock time spent across all
// attempts and waits. No wait is started at or past the cap; an
// explicitly zero cap is already spent and yields ErrBudgetExceeded
// before the first attempt.
func WithMaxElapsed(d time.Duration) Option {
	return func(c *config) {
		c.budget = d
		c.hasBudget = true
	}
}

// WithBackoff sets the base delay strategy. A nil Backoff disables the
// base wait; overrides and hints still apply.
func WithBackoff(b Backoff) Option {
	return func(c *config) {
		c.backoff = b
	}
}

// WithClock sets the clock used for budget reads and waits. Useful for
// testing.
func WithClock(clock Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithLimiter paces attempts through a shared limiter, typically a
// *ratelimit.Bucket shared across invocations, or a ratelimit.Waiter
// wrapping an x/time rate limiter.
func WithLimiter(l Limiter) Option {
	return func(c *config) {
		c.limiter = l
	}
}

// WithRateLimit paces attempts through a private token bucket created
// for this invocation only. For cross-call fairness share a bucket via
// WithLimiter instead.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(c *config) {
		c.rate = &cfg
	}
}

// If sets the condition deciding whether an error is retried. The
// default retries every error.
func If(cond Condition) Option {
	return func(c *config) {
		c.condition = cond
	}
}

// IfNot retries only errors NOT matching cond.
func IfNot(cond Condition) Option {
	return If(Not(cond))
}

// Not inverts a condition.
func Not(cond Condition) Condition {
	return func(err error) bool {
		return !cond(err)
	}
}

// RetryIfResult retries successful results the condition rejects.
// Result retries share the WithMaxRetries allowance; when it runs out
// the last result is returned as the successful outcome.
func RetryIfResult(cond ResultCondition) Option {
	return func(c *config) {
		c.resultCond = cond
	}
}

// WithOverride installs a hook that may extend the wait before each
// retry. See OverrideFunc.
func WithOverride(fn OverrideFunc) Option {
	return func(c *config) {
		c.override = fn
	}
}

// OnRetry sets a hook observing each counted retry. Panics inside the
// hook are swallowed and never change the outcome.
func OnRetry(fn OnRetryFunc) Option {
	return func(c *config) {
		c.onRetry = fn
	}
}

// OnGiveUp sets a hook observing the final failure. Panics inside the
// hook are swallowed and never change the outcome.
func OnGiveUp(fn OnGiveUpFunc) Option {
	return func(c *config) {
		c.onGiveUp = fn
	}
}

// WithSignals merges extra cancellation contexts into the invocation:
// whichever context cancels first, including the one passed to Do,
// aborts the run with its cause.
func WithSignals(signals ...context.Context) Option {
	return func(c *config) {
		c.signals = append(c.signals, signals...)
	}
}

// WithLogger emits structured events for retries and give-ups. The
// default logger is a no-op.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
