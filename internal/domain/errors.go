package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer. Every error returned by a service
// wraps exactly one of these so callers can branch on the kind.
var (
	ErrNotFound     = errors.New("domain: not found")
	ErrInvalidState = errors.New("domain: invalid state")
	ErrValidation   = errors.New("domain: validation failed")
	ErrConflict     = errors.New("domain: conflict")
)

// ErrorKind is the machine-readable classification of a domain error.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "NotFound"
	KindInvalidState        ErrorKind = "InvalidState"
	KindValidation          ErrorKind = "ValidationError"
	KindConcurrencyConflict ErrorKind = "ConcurrencyConflict"
	KindInternal            ErrorKind = "Internal"
)

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConcurrencyConflict
	default:
		return KindInternal
	}
}

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("domain: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a *ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
