// Package errors provides structured error types for zarrlens.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the library
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages for the short inline error strings shown
//     next to a missing thumbnail
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - METADATA_*: Missing or malformed Zarr/OME-Zarr metadata
//   - INVALID_*: Input validation failures
//   - NETWORK_*: Transport errors
//   - INTERNAL_*: Unexpected internal errors
//
// Most codes describe conditions that degrade to a documented default rather
// than failing a resolution. Only unexpected errors reach the caller.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMetadataMissing, "no array or attributes at %s", url)
//	if errors.Is(err, errors.ErrCodeMetadataMissing) {
//	    // show empty state
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeMetadataMalformed, origErr, "parse %s", key)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Metadata errors
	ErrCodeMetadataMissing   Code = "METADATA_MISSING"
	ErrCodeMetadataMalformed Code = "METADATA_MALFORMED"

	// Derived output errors
	ErrCodeThumbnailFailure        Code = "THUMBNAIL_FAILURE"
	ErrCodeViewerStateConstruction Code = "VIEWER_STATE_CONSTRUCTION"
	ErrCodeClassificationInconcl   Code = "CLASSIFICATION_INCONCLUSIVE"
	ErrCodeProbeFailure            Code = "PROBE_FAILURE"

	// Resolution lifecycle
	ErrCodeStale Code = "STALE"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// Degradable reports whether err belongs to the taxonomy of conditions that
// degrade to a documented default instead of surfacing to the caller.
func Degradable(err error) bool {
	switch GetCode(err) {
	case ErrCodeMetadataMissing, ErrCodeMetadataMalformed, ErrCodeThumbnailFailure,
		ErrCodeViewerStateConstruction, ErrCodeClassificationInconcl, ErrCodeProbeFailure:
		return true
	}
	return false
}
