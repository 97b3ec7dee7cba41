// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors should be used by use cases
// and mapped to appropriate HTTP status codes by handlers.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	// Webhook signature failures resolve to this error so callers see the same
	// generic 401 regardless of how verification failed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the authenticated caller doesn't have permission.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited indicates the caller exceeded the request ceiling for the
	// current window. Expected under load; handlers map it to 429 and must not
	// log it at error level.
	ErrRateLimited = errors.New("rate limited")

	// ErrSessionInvalid indicates a session blob failed decryption, failed its
	// authentication tag check, or has expired. Treated uniformly as "not
	// authenticated" at the boundary; callers must not be able to distinguish
	// a tampered blob from an expired one.
	ErrSessionInvalid = errors.New("session invalid")

	// ErrCSRFMismatch indicates the double-submit token pair was absent or did
	// not match. Recoverable by the client fetching a fresh token.
	ErrCSRFMismatch = errors.New("csrf token mismatch")

	// ErrDataOperation indicates a backend failure (database, network) during a
	// compliance export or redaction. Retryable; the one class in this layer
	// that should alert an operator.
	ErrDataOperation = errors.New("data operation failed")
)

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
