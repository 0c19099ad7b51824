package httpretry

import (
	"fmt"
	"io"
	"net/http"
)

// bodySnippetLimit bounds how much of a failed response body is kept
// for the error message.
const bodySnippetLimit = 512

// StatusError reports an attempt that completed with a retryable HTTP
// status. It retains the status and headers, so the retry engine's
// hint extraction can honor Retry-After and rate-limit reset headers
// carried on the failed response.
type StatusError struct {
	status int
	header http.Header
	body   []byte
}

// newStatusError captures the response and releases its body; draining
// keeps the underlying connection reusable across attempts.
func newStatusError(resp *http.Response) *StatusError {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, bodySnippetLimit))
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return &StatusError{
		status: resp.StatusCode,
		header: resp.Header.Clone(),
		body:   snippet,
	}
}

func (e *StatusError) Error() string {
	if len(e.body) == 0 {
		return fmt.Sprintf("http request failed with status %d", e.status)
	}
	return fmt.Sprintf("http request failed with status %d: %s", e.status, e.body)
}

// StatusCode returns the response status.
func (e *StatusError) StatusCode() int {
	return e.status
}

// Headers returns the response headers.
func (e *StatusError) Headers() http.Header {
	return e.header
}
