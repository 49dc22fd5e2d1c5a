// Package retry drives calls against a rate-limited generative endpoint:
// a shared spacing gate, rate-limit classification and backoff windows.
package retry

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidResponse marks a response rejected by validation.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrExhausted is returned when every attempt failed.
	ErrExhausted = errors.New("retry attempts exhausted")
	// ErrFatal wraps errors that are not worth retrying.
	ErrFatal = errors.New("non-retryable error")
)

// RateLimitSignal is implemented by endpoint errors that carry a structured
// throttling signal. A positive signal wins over text matching; a negative
// one still lets the text indicators decide.
type RateLimitSignal interface {
	RateLimited() bool
	RetryDelay() (time.Duration, bool)
}

// DefaultIndicators are the lower-case substrings that mark a quota or
// throttling error in error text.
var DefaultIndicators = []string{
	"quota",
	"rate limit",
	"rate-limit",
	"ratelimit",
	"too many requests",
	"resource_exhausted",
	"resource exhausted",
	"retry in",
	"retry_delay",
}

const (
	defaultMaxAttempts  = 3
	defaultRetryDelay   = 60 * time.Second
	defaultSafetyMargin = 5 * time.Second
)

// delayPatterns are tried in order; the first capture group is seconds.
var delayPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)please retry in (\d+(?:\.\d+)?)s`),
	regexp.MustCompile(`(?i)retry_delay\s*\{\s*seconds:\s*(\d+)`),
	regexp.MustCompile(`(?i)"?retryDelay"?\s*[:=]\s*"?(\d+(?:\.\d+)?)s`),
	regexp.MustCompile(`(?i)retry after (\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)seconds:\s*(\d+)`),
}

// Policy configures attempts and backoff for one caller.
type Policy struct {
	// MaxAttempts includes the first call.
	MaxAttempts int
	// DefaultDelay applies when a rate-limit error names no delay.
	DefaultDelay time.Duration
	// SafetyMargin is added to every server-suggested delay.
	SafetyMargin time.Duration
	Indicators   []string
	// Sleep waits between attempts; nil means a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns three attempts, a 60s default window and a 5s margin.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  defaultMaxAttempts,
		DefaultDelay: defaultRetryDelay,
		SafetyMargin: defaultSafetyMargin,
		Indicators:   DefaultIndicators,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.DefaultDelay <= 0 {
		p.DefaultDelay = defaultRetryDelay
	}
	if p.SafetyMargin < 0 {
		p.SafetyMargin = 0
	}
	if len(p.Indicators) == 0 {
		p.Indicators = DefaultIndicators
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	return p
}

// Classify reports whether err is a rate-limit error and, if so, how long to
// wait before the next attempt.
func (p Policy) Classify(err error) (bool, time.Duration) {
	if err == nil {
		return false, 0
	}
	p = p.withDefaults()

	var signal RateLimitSignal
	if errors.As(err, &signal) && signal.RateLimited() {
		if d, ok := signal.RetryDelay(); ok {
			return true, wholeSeconds(d) + p.SafetyMargin
		}
		return true, p.ExtractDelay(err.Error())
	}

	text := strings.ToLower(err.Error())
	for _, indicator := range p.Indicators {
		if indicator != "" && strings.Contains(text, strings.ToLower(indicator)) {
			return true, p.ExtractDelay(err.Error())
		}
	}
	return false, 0
}

// ExtractDelay reads a server-suggested delay from error text. A match is
// truncated to whole seconds and padded with the safety margin; no match
// yields the default delay.
func (p Policy) ExtractDelay(text string) time.Duration {
	p = p.withDefaults()
	for _, pattern := range delayPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		seconds, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		return time.Duration(int64(seconds))*time.Second + p.SafetyMargin
	}
	return p.DefaultDelay
}

func wholeSeconds(d time.Duration) time.Duration {
	return d.Truncate(time.Second)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
