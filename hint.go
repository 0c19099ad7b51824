package retryable

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Hinter is implemented by errors that carry an explicit retry delay,
// e.g. a rate-limit error built from a parsed Retry-After header.
type Hinter interface {
	RetryAfter() time.Duration
}

// ResponseCarrier is implemented by errors that retain the HTTP
// response that produced them.
type ResponseCarrier interface {
	HTTPResponse() *http.Response
}

// HeaderCarrier is implemented by errors that retain response headers.
type HeaderCarrier interface {
	Headers() http.Header
}

// StatusCarrier is implemented by errors that retain an HTTP status
// code.
type StatusCarrier interface {
	StatusCode() int
}

// statusHint is the assumed minimum delay when an error reports 429 or
// 503 with no usable timing header.
const statusHint = time.Second

// Reset timestamps at or above this value are taken as epoch
// milliseconds rather than seconds.
const epochMillisCutoff = 1e10

var resetHeaders = []string{
	"X-RateLimit-Reset",
	"X-Rate-Limit-Reset",
	"Rate-Limit-Reset",
}

// HintFromError inspects err and its chain for a server-suggested
// minimum retry delay. Recognized capabilities, in priority order:
//
//  1. Hinter: an explicit delay on the error itself.
//  2. Retry-After from a ResponseCarrier or HeaderCarrier, read first
//     as delay seconds, then as an HTTP date. Dates in the past yield
//     nothing.
//  3. X-RateLimit-Reset style headers, read as an epoch timestamp in
//     seconds (milliseconds at or above 1e10). Past resets yield
//     nothing.
//  4. A bare 429 or 503 status, yielding a fixed one-second hint.
//
// Header access is best-effort: a carrier that panics is treated as
// having no header data, falling through to the status check. The
// second return is false when no hint was found.
func HintFromError(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}

	var hinter Hinter
	if errors.As(err, &hinter) {
		if d := hinter.RetryAfter(); d >= 0 {
			return d, true
		}
	}

	if header, ok := headersFromChain(err); ok {
		if d, ok := fromRetryAfter(headerValue(header, "Retry-After")); ok {
			return d, true
		}
		if d, ok := fromResetHeaders(header); ok {
			return d, true
		}
	}

	switch statusFromChain(err) {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return statusHint, true
	}
	return 0, false
}

// headersFromChain extracts response headers from the first carrier in
// the error chain, swallowing panics from misbehaving carriers.
func headersFromChain(err error) (header http.Header, ok bool) {
	defer func() {
		if recover() != nil {
			header, ok = nil, false
		}
	}()

	var rc ResponseCarrier
	if errors.As(err, &rc) {
		if resp := rc.HTTPResponse(); resp != nil && resp.Header != nil {
			return resp.Header, true
		}
	}
	var hc HeaderCarrier
	if errors.As(err, &hc) {
		if h := hc.Headers(); h != nil {
			return h, true
		}
	}
	return nil, false
}

// statusFromChain extracts a status code from the first carrier in the
// error chain, swallowing panics the same way headersFromChain does.
func statusFromChain(err error) (status int) {
	defer func() {
		if recover() != nil {
			status = 0
		}
	}()

	var rc ResponseCarrier
	if errors.As(err, &rc) {
		if resp := rc.HTTPResponse(); resp != nil {
			return resp.StatusCode
		}
	}
	var sc StatusCarrier
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

// headerValue looks up a header case-insensitively, tolerating maps
// that were populated without canonical keys.
func headerValue(header http.Header, key string) string {
	if v := header.Get(key); v != "" {
		return v
	}
	for k, vs := range header {
		if strings.EqualFold(k, key) && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

func fromRetryAfter(value string) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d, true
		}
	}
	return 0, false
}

func fromResetHeaders(header http.Header) (time.Duration, bool) {
	for _, key := range resetHeaders {
		value := headerValue(header, key)
		if value == "" {
			continue
		}
		epoch, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || epoch <= 0 {
			continue
		}
		var at time.Time
		if epoch >= epochMillisCutoff {
			at = time.UnixMilli(int64(epoch))
		} else {
			at = time.Unix(int64(epoch), 0)
		}
		if d := time.Until(at); d > 0 {
			return d, true
		}
	}
	return 0, false
}
