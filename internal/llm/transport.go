package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com"
	DefaultTimeout = 60 * time.Second
)

// Config holds the settings shared by the embeddings and chat clients.
type Config struct {
	// BaseURL is the API base URL without the /v1 suffix
	// (default: https://api.openai.com). Can point at any compatible server.
	BaseURL string

	// APIKey is sent as a bearer token. Required against hosted services,
	// optional against local servers.
	APIKey string

	// Timeout bounds each request attempt (default: 60s). A timed-out
	// attempt counts as a failed request, never a hang.
	Timeout time.Duration

	// RateRPS is the sustained client-side request rate in requests per
	// second. Zero disables client-side limiting.
	RateRPS float64

	// Retry decides which failures are retried and with what delay.
	// Nil means DefaultRetryPolicy().
	Retry RetryPolicy
}

// transport wires the concerns every API call shares: a client-side token
// bucket, a per-attempt timeout, and bounded retry on retryable failures.
type transport struct {
	client  *http.Client
	limiter *rate.Limiter
	policy  RetryPolicy
	apiKey  string
}

func newTransport(cfg Config) *transport {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	policy := cfg.Retry
	if policy == nil {
		policy = DefaultRetryPolicy()
	}

	t := &transport{
		client: &http.Client{Timeout: timeout},
		policy: policy,
		apiKey: cfg.APIKey,
	}
	if cfg.RateRPS > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RateRPS), 1)
	}
	return t
}

// postJSON marshals payload, sends it to url, and returns the raw response
// body. Retryable failures are re-sent per the retry policy; terminal
// failures surface immediately as *APIError.
func (t *transport) postJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		raw, err := t.post(ctx, url, body)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		delay, ok := t.policy.NextDelay(attempt, err)
		if !ok {
			return nil, lastErr
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (t *transport) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// Caller cancellation is terminal; a per-attempt timeout or
		// transport failure is a retryable network error.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newNetworkError(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newNetworkError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp.StatusCode, raw, resp.Header.Get("x-request-id"))
	}

	return raw, nil
}
