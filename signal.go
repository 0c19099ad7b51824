package retryable

import "context"

// Merge derives a context from parent that is additionally cancelled
// when any of the given signal contexts is cancelled, carrying the
// firing signal's cause. Nil signals are ignored. A signal that is
// already cancelled at merge time cancels the result immediately. The
// first cancellation wins and latches; later firings are no-ops.
//
// The returned release function detaches the subscriptions and cancels
// the merged context; call it once the merged context is no longer
// needed.
func Merge(parent context.Context, signals ...context.Context) (context.Context, context.CancelFunc) {
	live := signals[:0:0]
	for _, sig := range signals {
		if sig != nil {
			live = append(live, sig)
		}
	}
	if len(live) == 0 {
		return context.WithCancel(parent)
	}

	ctx, cancel := context.WithCancelCause(parent)
	stops := make([]func() bool, 0, len(live))
	for _, sig := range live {
		if sig.Err() != nil {
			cancel(context.Cause(sig))
			break
		}
		stops = append(stops, context.AfterFunc(sig, func() {
			cancel(context.Cause(sig))
		}))
	}
	return ctx, func() {
		for _, stop := range stops {
			stop()
		}
		cancel(context.Canceled)
	}
}
