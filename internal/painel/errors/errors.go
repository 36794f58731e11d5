// Package errors provides the error taxonomy of the painel player
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying failures across the player
var (
	// ErrValidation indicates malformed operator input
	ErrValidation = errors.New("validation failed")

	// ErrPairing indicates the backend rejected a pairing code
	ErrPairing = errors.New("pairing failed")

	// ErrFetch indicates a failed content poll
	ErrFetch = errors.New("fetch failed")

	// ErrMediaFault indicates a video failed to load, play or finish
	ErrMediaFault = errors.New("media fault")

	// ErrNotPaired indicates no device identifier has been stored yet
	ErrNotPaired = errors.New("device not paired")

	// ErrNotFound indicates a requested record doesn't exist
	ErrNotFound = errors.New("not found")
)

// Error represents a classified error with additional context
type Error struct {
	// Code is a machine-readable error code
	Code string
	// Message is a human-readable error description
	Message string
	// Op describes the operation that failed
	Op string
	// Err is the underlying error
	Err error
}

// Error implements the error interface with a formatted message
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain handling
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given details
func NewError(code string, message string, op string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

// Validation builds a validation error for the operation
func Validation(op, message string) *Error {
	return NewError("VALIDATION", message, op, ErrValidation)
}

// Pairing builds a pairing error. cause may be nil.
func Pairing(op, message string, cause error) *Error {
	return NewError("PAIRING", message, op, join(ErrPairing, cause))
}

// Fetch builds a fetch error wrapping cause
func Fetch(op string, cause error) *Error {
	return NewError("FETCH", cause.Error(), op, join(ErrFetch, cause))
}

// MediaFault builds a media fault for the given source
func MediaFault(op, message string) *Error {
	return NewError("MEDIA_FAULT", message, op, ErrMediaFault)
}

func join(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return errors.Join(sentinel, cause)
}

// IsValidation returns true if err represents invalid operator input
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsPairing returns true if err represents a rejected pairing
func IsPairing(err error) bool {
	return errors.Is(err, ErrPairing)
}

// IsFetch returns true if err represents a failed poll
func IsFetch(err error) bool {
	return errors.Is(err, ErrFetch)
}

// IsMediaFault returns true if err represents a media failure
func IsMediaFault(err error) bool {
	return errors.Is(err, ErrMediaFault)
}

// IsNotPaired returns true if no device identifier is stored
func IsNotPaired(err error) bool {
	return errors.Is(err, ErrNotPaired)
}

// IsNotFound returns true if err represents a missing record
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
