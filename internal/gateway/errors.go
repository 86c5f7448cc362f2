package gateway

import (
	"fmt"

	"github.com/ascendlabs/ascendancy/internal/core"
)

// UpstreamError represents a failed call to a model-serving backend.
type UpstreamError struct {
	// Provider is the backend that returned the error.
	Provider core.Provider

	// Status is the HTTP status code, or 0 for transport failures.
	Status int

	// Body is a truncated copy of the response body.
	Body string

	// Err is the underlying error (if any).
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s upstream error (status %d): %s", e.Provider, e.Status, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s upstream error: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s upstream error", e.Provider)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// retriable reports whether the failure is worth another attempt.
// Rate limits, server errors, and transport failures retry; anything
// the caller can fix (bad request, bad credential) does not.
func retriable(err error) bool {
	upstream, ok := err.(*UpstreamError)
	if !ok {
		return false
	}
	if upstream.Status == 0 {
		return true
	}
	return upstream.Status == 429 || upstream.Status >= 500
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
