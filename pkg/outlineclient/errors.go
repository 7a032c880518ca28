package outlineclient

import (
	"errors"
	"fmt"
)

// Kind classifies an API failure so callers can tell a vanished key
// from an unreachable server.
type Kind int

const (
	// Unknown represents an unclassified failure
	Unknown Kind = iota
	// NotFound represents a missing remote entity
	NotFound
	// Unauthorized represents an authentication or permission failure
	Unauthorized
	// Transient represents a failure that may succeed on retry
	Transient
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Unauthorized:
		return "unauthorized"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}

// Error represents an error from the Outline management API
type Error struct {
	Op     string
	Kind   Kind
	Status int
	Err    error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("outline API error during %s (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("outline API error during %s (%s): status %d", e.Op, e.Kind, e.Status)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from an error chain
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return Unknown
}

// kindForStatus maps an HTTP status code to a failure kind
func kindForStatus(status int) Kind {
	switch {
	case status == 404:
		return NotFound
	case status == 401 || status == 403:
		return Unauthorized
	case status >= 500:
		return Transient
	default:
		return Unknown
	}
}
