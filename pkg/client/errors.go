package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	// It always wraps the last transport error observed.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrMissingAPIKey is returned by New when no UMLS API key is
	// configured. This is a run-fatal precondition for the caller.
	ErrMissingAPIKey = errors.New("UMLS API key is required")

	// ErrContextCancelled is returned when the context is cancelled during
	// retry backoff.
	ErrContextCancelled = errors.New("context cancelled")
)

// APIError represents a non-2xx response from the vocabulary service.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("vsac error (status %d) on %s: %s",
		e.StatusCode, e.Endpoint, e.Message)
}

// Retryable reports whether the response class is transient. Only 429 and
// 5xx responses are retried; other 4xx responses and network-level
// failures propagate immediately.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// shouldRetry classifies an arbitrary error for the retry executor.
func shouldRetry(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}
