package retryable

import (
	"errors"
	"fmt"
)

// ErrBudgetExceeded is returned when the elapsed-time budget is already
// spent before an attempt can be made. Mid-run budget exhaustion does
// not produce this error; the engine finishes with the last operation
// outcome instead of waiting further.
var ErrBudgetExceeded = errors.New("retryable: time budget exceeded")

// ErrInvalidConfig is returned synchronously when option values cannot
// describe a runnable policy, e.g. a negative timeout or retry count.
// Use errors.Is to detect it; the returned error carries the offending
// option in its message.
var ErrInvalidConfig = errors.New("retryable: invalid configuration")

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
