package retry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Gate enforces a minimum spacing between consecutive endpoint calls. One
// gate is shared by every caller hitting the same endpoint.
type Gate struct {
	limiter *rate.Limiter
}

// NewGate allows one call per spacing; spacing <= 0 disables the gate.
func NewGate(spacing time.Duration) *Gate {
	limit := rate.Inf
	if spacing > 0 {
		limit = rate.Every(spacing)
	}
	return &Gate{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next call may start.
func (g *Gate) Wait(ctx context.Context) error {
	if g == nil || g.limiter == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}

// Call performs one request and returns the response text.
type Call func(ctx context.Context) (string, error)

// Validate rejects a response that should be retried.
type Validate func(text string) error

// Caller runs calls through the gate under a retry policy.
type Caller struct {
	gate   *Gate
	policy Policy
	logger *slog.Logger
}

// NewCaller wires a gate and policy; a nil gate means no spacing.
func NewCaller(gate *Gate, policy Policy, logger *slog.Logger) *Caller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Caller{gate: gate, policy: policy.withDefaults(), logger: logger}
}

// Policy returns the effective policy.
func (c *Caller) Policy() Policy {
	return c.policy
}

// Do returns the first response that is non-empty and passes validate.
// Rate-limited failures wait for the backoff window and retry; invalid
// responses retry straight away (the gate still spaces them); anything else
// stops immediately with ErrFatal.
func (c *Caller) Do(ctx context.Context, label string, call Call, validate Validate) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if err := c.gate.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for rate gate: %w", err)
		}

		c.logger.Debug("calling endpoint", "label", label, "attempt", attempt, "max_attempts", c.policy.MaxAttempts)

		text, err := call(ctx)
		if err == nil {
			if err = checkResponse(text, validate); err == nil {
				return text, nil
			}
			lastErr = err
			c.logger.Warn("rejected endpoint response", "label", label, "attempt", attempt, "error", err)
			continue
		}

		lastErr = err
		limited, delay := c.policy.Classify(err)
		if !limited {
			c.logger.Error("non-retryable endpoint error", "label", label, "attempt", attempt, "error", err)
			return "", fmt.Errorf("%w: %w", ErrFatal, err)
		}
		if attempt == c.policy.MaxAttempts {
			break
		}

		c.logger.Info("rate limited, backing off", "label", label, "attempt", attempt, "delay", delay)
		if err := c.policy.Sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("backoff interrupted: %w", err)
		}
	}

	return "", fmt.Errorf("%w after %d attempts: %w", ErrExhausted, c.policy.MaxAttempts, lastErr)
}

func checkResponse(text string, validate Validate) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}
	if validate == nil {
		return nil
	}
	if err := validate(text); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return nil
}
