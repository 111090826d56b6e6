package llm

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// RetryPolicy determines retry behavior for failed requests.
type RetryPolicy interface {
	// NextDelay returns the delay before the next retry attempt and whether
	// to retry at all. attempt starts at 0 for the first retry after the
	// initial failure.
	NextDelay(attempt int, err error) (delay time.Duration, ok bool)
}

// DefaultJitter is the jitter factor DefaultRetryPolicy applies.
const DefaultJitter = 0.2

// RetryConfig configures bounded exponential backoff.
type RetryConfig struct {
	MaxRetries int           // retry attempts after the initial request (default 3)
	BaseDelay  time.Duration // delay before the first retry (default 1s)
	MaxDelay   time.Duration // cap on any single delay (default 30s)
	Jitter     float64       // jitter factor 0.0-1.0 (0 disables jitter)
}

// DefaultRetryPolicy returns exponential backoff with jitter, max 3 retries.
func DefaultRetryPolicy() RetryPolicy {
	return NewRetryPolicy(RetryConfig{Jitter: DefaultJitter})
}

// NewRetryPolicy creates a retry policy, filling zero counts and durations
// with defaults. Jitter 0 keeps delays deterministic.
func NewRetryPolicy(cfg RetryConfig) RetryPolicy {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.Jitter < 0 || cfg.Jitter > 1 {
		cfg.Jitter = DefaultJitter
	}
	return &exponentialBackoff{cfg: cfg}
}

type exponentialBackoff struct {
	cfg RetryConfig
}

func (e *exponentialBackoff) NextDelay(attempt int, err error) (time.Duration, bool) {
	if attempt >= e.cfg.MaxRetries {
		return 0, false
	}
	if !isRetryable(err) {
		return 0, false
	}

	// baseDelay * 2^attempt, +/- jitter, capped at MaxDelay
	delay := float64(e.cfg.BaseDelay) * math.Pow(2, float64(attempt))
	if e.cfg.Jitter > 0 {
		jitterRange := delay * e.cfg.Jitter
		delay += (rand.Float64()*2 - 1) * jitterRange
	}
	if delay > float64(e.cfg.MaxDelay) {
		delay = float64(e.cfg.MaxDelay)
	}
	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay), true
}

// isRetryable reports whether an error should trigger a retry. Rate limiting,
// server errors, and transport failures are transient; validation errors,
// auth failures, decode failures, and caller cancellation are terminal.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrDecode) || errors.Is(err, ErrUnknownCategory) {
		return false
	}

	if errors.Is(err, ErrNetwork) || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServer) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return isRetryableStatus(apiErr.Status)
	}

	return false
}

func isRetryableStatus(status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500 && status < 600
}
