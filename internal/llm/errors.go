package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors classifying upstream API failures. Callers match with
// errors.Is to decide between terminal and retryable handling.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrRateLimited     = errors.New("rate limited")
	ErrServer          = errors.New("server error")
	ErrNetwork         = errors.New("network error")
	ErrDecode          = errors.New("decode error")
	ErrUnknownCategory = errors.New("category not in configured set")
)

// APIError carries the full context of an upstream API failure.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
	Err       error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	if e.RequestID != "" {
		return fmt.Sprintf("%s (status=%d, code=%s, request_id=%s)",
			e.Message, e.Status, e.Code, e.RequestID)
	}
	return fmt.Sprintf("%s (status=%d, code=%s)", e.Message, e.Status, e.Code)
}

// Unwrap returns the classification sentinel for error chaining.
func (e *APIError) Unwrap() error {
	return e.Err
}

// apiErrorEnvelope is the error body OpenAI-compatible services return:
// {"error":{"message":"...","type":"...","code":"..."}}
type apiErrorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// newAPIError normalizes a non-200 response into an *APIError wrapping the
// sentinel that matches its status code.
func newAPIError(status int, body []byte, requestID string) error {
	var envelope apiErrorEnvelope
	_ = json.Unmarshal(body, &envelope)

	message := envelope.Error.Message
	if message == "" {
		message = http.StatusText(status)
	}
	code := envelope.Error.Code
	if code == "" {
		code = envelope.Error.Type
	}

	return &APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Err:       sentinelForStatus(status),
	}
}

// newNetworkError wraps a transport failure. The original error is flattened
// into the message so context sentinels never leak into the chain; per-attempt
// timeouts stay retryable while caller cancellation is surfaced separately.
func newNetworkError(err error) error {
	return &APIError{Message: err.Error(), Err: ErrNetwork}
}

// newDecodeError wraps a malformed or unexpected response body.
func newDecodeError(err error) error {
	return &APIError{Message: err.Error(), Err: ErrDecode}
}

func sentinelForStatus(status int) error {
	switch {
	case status == http.StatusBadRequest:
		return ErrBadRequest
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrServer
	}
}
