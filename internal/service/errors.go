package service

import (
	"errors"
	"fmt"

	"embedpipe/internal/llm"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrExternalService is returned when an external service call fails.
	ErrExternalService = errors.New("external service error")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// upstreamError marks err as an external dependency failure while keeping the
// original chain intact for logging. Callers detect it with
// errors.Is(err, ErrExternalService).
func upstreamError(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrExternalService, err)
}

// wrapEmbeddingError classifies an embedding failure: errors reported by the
// embeddings API are external, tokenizer and chunking failures are internal.
func wrapEmbeddingError(msg string, err error) error {
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return upstreamError(msg, err)
	}
	return WrapError(err, msg)
}
