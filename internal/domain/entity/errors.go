package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ErrorKind classifies a domain failure the way callers need to react to
// it, independent of the underlying Go error type.
type ErrorKind string

const (
	// KindNotFound means the base article could not be located.
	KindNotFound ErrorKind = "not_found"
	// KindInvalidInput means a caller-supplied parameter was out of bounds.
	KindInvalidInput ErrorKind = "invalid_input"
	// KindUpstreamUnavailable means the vector store, NLI model, or feed
	// fetch failed.
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	// KindCorrupted means the vectorizer artifact is missing or its
	// dimension disagrees with the collection at query time.
	KindCorrupted ErrorKind = "corrupted"
	// KindConflict means a process-wide advisory lock was already held.
	KindConflict ErrorKind = "conflict"
)

// KindedError wraps an underlying error with a classification and the
// operation that produced it.
type KindedError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *KindedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *KindedError) Unwrap() error { return e.Err }

// NewError builds a *KindedError, wiring op and kind to err.
func NewError(op string, kind ErrorKind, err error) *KindedError {
	return &KindedError{Op: op, Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from err if it (or something it wraps) is
// a *KindedError, else returns "" with ok=false.
func KindOf(err error) (ErrorKind, bool) {
	var ke *KindedError
	if errors.As(err, &ke) {
		return ke.Kind, true
	}
	return "", false
}
