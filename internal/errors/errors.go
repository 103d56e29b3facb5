package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig  = "CONFIG"
	ErrAuth    = "AUTH"
	ErrNetwork = "NETWORK"
	ErrPush    = "PUSH"
	ErrDecode  = "DECODE"
	ErrPersist = "PERSIST"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// The rendered form is:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrNetwork code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrNetwork,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface with the multi-line CLI format.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var zErr *Error
	if errors.As(err, &zErr) {
		return zErr.Code == code
	}
	return false
}

// Message flattens an error into a single line suitable for a status bar.
// Structured errors render as "message: cause"; anything else uses Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var zErr *Error
	if !errors.As(err, &zErr) {
		return strings.TrimSpace(err.Error())
	}
	if zErr.Cause == nil {
		return zErr.Message
	}
	return zErr.Message + ": " + Message(zErr.Cause)
}

// Code returns the code of the outermost structured error in err's chain,
// or fallback when there is none.
func Code(err error, fallback string) string {
	var zErr *Error
	if errors.As(err, &zErr) && zErr.Code != "" {
		return zErr.Code
	}
	return fallback
}
