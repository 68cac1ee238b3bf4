// Package errors provides structured error types for the investor-agent application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI, MCP tools, and the HTTP bridge
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - CONFIG_*: Missing or unusable configuration (fatal at construction)
//   - INVALID_*: Input validation failures (never retried, no network I/O)
//   - UPSTREAM_* and related: failures from a remote provider (exhausted
//     retries, auth failures, malformed responses)
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSymbol, "ticker symbol cannot be empty")
//	if errors.Is(err, errors.ErrCodeInvalidSymbol) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeUpstream, origErr, "failed to fetch quote for %s", symbol)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors (construction-time, fatal)
	ErrCodeConfigMissing Code = "CONFIG_MISSING"
	ErrCodeConfigInvalid Code = "CONFIG_INVALID"

	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidSymbol  Code = "INVALID_SYMBOL"
	ErrCodeInvalidAccount Code = "INVALID_ACCOUNT"
	ErrCodeInvalidDate    Code = "INVALID_DATE"
	ErrCodeInvalidPeriod  Code = "INVALID_PERIOD"

	// Upstream provider errors
	ErrCodeUpstream     Code = "UPSTREAM_ERROR"
	ErrCodeUpstreamData Code = "UPSTREAM_DATA"
	ErrCodeUpstreamAuth Code = "UPSTREAM_AUTH"
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeRateLimited  Code = "RATE_LIMITED"
	ErrCodeTimeout      Code = "TIMEOUT"

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
// If cause is already an *Error its code is preserved, so wrapping at an
// operation boundary never coarsens a specific code (a validation failure
// stays INVALID_*, an auth rejection stays UPSTREAM_AUTH). The given code
// only applies when the cause is a plain error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	var inner *Error
	if errors.As(cause, &inner) && inner.Code != "" {
		code = inner.Code
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// IsConfig reports whether the error code is in the CONFIG_* family.
func (e *Error) IsConfig() bool {
	return e.Code == ErrCodeConfigMissing || e.Code == ErrCodeConfigInvalid
}

// IsInvalid reports whether the error code is in the INVALID_* family.
func (e *Error) IsInvalid() bool {
	switch e.Code {
	case ErrCodeInvalidInput, ErrCodeInvalidSymbol, ErrCodeInvalidAccount,
		ErrCodeInvalidDate, ErrCodeInvalidPeriod:
		return true
	}
	return false
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

// IsInvalidInput reports whether err carries any INVALID_* code.
func IsInvalidInput(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.IsInvalid()
}

// IsConfiguration reports whether err carries any CONFIG_* code.
func IsConfiguration(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.IsConfig()
}

// IsUpstream reports whether err carries a code that is neither CONFIG_*
// nor INVALID_*, meaning the failure originated at a remote provider.
func IsUpstream(err error) bool {
	var e *Error
	return errors.As(err, &e) && !e.IsInvalid() && !e.IsConfig()
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
