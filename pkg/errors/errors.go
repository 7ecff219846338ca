// Package errors provides structured error types for placetree.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the engine
//   - Machine-readable error codes for programmatic handling
//   - User-friendly refusal messages for rejected moves
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes fall into a few families:
//   - Policy refusals: SELF_PARENT, CYCLE, KIND_MISMATCH, NON_LEAF_REPARENT,
//     EXPLICIT_ROOT_TARGET. These are an expected "no" from the move
//     validator, not failures. Use [IsRefusal] to detect them.
//   - Snapshot problems: INVALID_SNAPSHOT, DUPLICATE_ID, INVALID_ID
//   - NOT_FOUND for stale or unknown location ids
//   - RATE_LIMITED from the HTTP API
//   - INVALID_*, INTERNAL_ERROR, UNSUPPORTED for everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeCycle, "%s is an ancestor of %s", a, b)
//	if errors.Is(err, errors.ErrCodeCycle) {
//	    // restore the pre-drag arrangement
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Move policy refusals
	ErrCodeSelfParent         Code = "SELF_PARENT"
	ErrCodeCycle              Code = "CYCLE"
	ErrCodeKindMismatch       Code = "KIND_MISMATCH"
	ErrCodeNonLeafReparent    Code = "NON_LEAF_REPARENT"
	ErrCodeExplicitRootTarget Code = "EXPLICIT_ROOT_TARGET"

	// Snapshot integrity errors
	ErrCodeInvalidSnapshot Code = "INVALID_SNAPSHOT"
	ErrCodeDuplicateID     Code = "DUPLICATE_ID"
	ErrCodeInvalidID       Code = "INVALID_ID"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Concurrency errors
	ErrCodeConflict Code = "CONFLICT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"

	// Transport errors
	ErrCodeRateLimited Code = "RATE_LIMITED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsRefusal reports whether err is a move policy refusal.
// Refusals are expected outcomes of validation: the caller restores the
// previous arrangement instead of treating them as failures.
func IsRefusal(err error) bool {
	switch GetCode(err) {
	case ErrCodeSelfParent, ErrCodeCycle, ErrCodeKindMismatch,
		ErrCodeNonLeafReparent, ErrCodeExplicitRootTarget:
		return true
	}
	return false
}
