package retryable

// Stop wraps an error to mark it terminal: the engine finishes
// immediately with the wrapped error instead of retrying. Returning
// Stop(nil) is a successful outcome.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &stopError{err: err}
}

type stopError struct {
	err error
}

func (e *stopError) Error() string {
	return e.err.Error()
}

func (e *stopError) Unwrap() error {
	return e.err
}
