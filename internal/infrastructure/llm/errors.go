package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ContentCurator/internal/retry"
)

// ErrMissingAPIKey is returned when a client is built without credentials.
var ErrMissingAPIKey = errors.New("llm api key is not configured")

// APIError is a failed response from a completion endpoint.
type APIError struct {
	Provider   string
	StatusCode int
	Status     string
	Message    string
	// RetryAfter is the server-provided backoff, zero when absent.
	RetryAfter time.Duration
}

var _ retry.RateLimitSignal = (*APIError)(nil)

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s error %d", e.Provider, e.StatusCode)
	if e.Status != "" {
		fmt.Fprintf(&b, " %s", e.Status)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	return b.String()
}

// RateLimited reports quota or throttling rejections.
func (e *APIError) RateLimited() bool {
	if e == nil {
		return false
	}
	return e.StatusCode == http.StatusTooManyRequests ||
		strings.EqualFold(e.Status, "RESOURCE_EXHAUSTED")
}

// RetryDelay returns the server-suggested backoff if one was sent.
func (e *APIError) RetryDelay() (time.Duration, bool) {
	if e == nil || e.RetryAfter <= 0 {
		return 0, false
	}
	return e.RetryAfter, true
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
