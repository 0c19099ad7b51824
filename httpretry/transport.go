// Package httpretry retries transient HTTP failures through the
// retryable engine. Responses with retryable statuses (429 and 5xx)
// are surfaced to the engine as errors that retain their status and
// headers, so Retry-After and rate-limit reset hints pace the retries
// automatically.
package httpretry

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/besotti/retryable"
)

// Transport is an http.RoundTripper that retries requests whose
// attempts fail with a network error or a retryable status. When
// retries run out, the caller receives the transport error or a
// *StatusError rather than a response; non-retryable statuses pass
// through untouched.
type Transport struct {
	base   http.RoundTripper
	logger zerolog.Logger
	opts   []retryable.Option
}

// New wraps base (nil means http.DefaultTransport) with retry
// behavior. The options configure the underlying engine: retry counts,
// backoff, budgets, rate limiting.
func New(base http.RoundTripper, opts ...retryable.Option) *Transport {
	return &Transport{
		base:   base,
		logger: zerolog.Nop(),
		opts:   opts,
	}
}

// WithLogger emits a structured event per attempt.
func (t *Transport) WithLogger(logger zerolog.Logger) *Transport {
	t.logger = logger
	return t
}

// RoundTrip implements http.RoundTripper. Request bodies are replayed
// via GetBody; a request with a body but no GetBody cannot be safely
// reissued and is performed exactly once.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if req.Body != nil && req.GetBody == nil {
		return base.RoundTrip(req)
	}

	return retryable.DoValue(req.Context(), func(ctx context.Context) (*http.Response, error) {
		attempt := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, retryable.Stop(err)
			}
			attempt.Body = body
		}

		t.logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Msg("sending request")

		resp, err := base.RoundTrip(attempt)
		if err != nil {
			return nil, err
		}
		if retryableStatus(resp.StatusCode) {
			return nil, newStatusError(resp)
		}
		return resp, nil
	}, t.opts...)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
