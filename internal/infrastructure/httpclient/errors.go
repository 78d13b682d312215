package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// redactedValue replaces secret query values in URLs that reach errors and logs.
const redactedValue = "REDACTED"

// secretParams are query parameters whose values never leave the fetcher.
var secretParams = []string{"apikey", "api_key", "access_token"}

// HTTPError is returned when an upstream answers outside the 2xx range. URL is
// already redacted.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       []byte
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http error: <nil>"
	}
	if len(e.Body) == 0 {
		return fmt.Sprintf("GET %s: http status %d", e.URL, e.StatusCode)
	}
	body := e.Body
	if len(body) > 256 {
		body = body[:256]
	}
	return fmt.Sprintf("GET %s: http status %d: %s", e.URL, e.StatusCode, body)
}

// Retryable reports whether the status is worth retrying (429 and 5xx gateway errors).
func (e *HTTPError) Retryable() bool {
	switch e.StatusCode {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// RetryDelay is the server-requested delay from Retry-After, if any.
func (e *HTTPError) RetryDelay() time.Duration {
	return e.RetryAfter
}

// TransportError is a request that never produced a response: dial failure,
// connection reset or the fetcher's own timeout. URL is already redacted.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable implements retry.Retryable. Transport failures are always worth another attempt.
func (e *TransportError) Retryable() bool {
	return true
}

// countsAsFailure reports whether err should trip the circuit breaker. Client
// errors such as 404 mean the upstream is healthy, and a caller that gave up
// says nothing about the upstream.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode >= 500 || he.StatusCode == 429
	}
	return true
}

// RedactURL masks the values of secret query parameters such as apikey.
// Unparseable input loses its whole query string.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexByte(raw, '?'); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	if u.RawQuery == "" {
		return raw
	}
	q := u.Query()
	changed := false
	for key := range q {
		for _, secret := range secretParams {
			if strings.EqualFold(key, secret) {
				q.Set(key, redactedValue)
				changed = true
			}
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}
