// Package errors provides the typed error values shared across pricepilot.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies the category of an error.
type Type string

const (
	// TypeInput indicates a form-level validation failure.
	TypeInput Type = "INPUT_ERROR"

	// TypeConfig indicates an invalid rate configuration or configuration edit.
	TypeConfig Type = "CONFIG_ERROR"

	// TypeExport indicates the export boundary could not produce a document.
	TypeExport Type = "EXPORT_ERROR"

	// TypeNotFound indicates a missing draft, quote or label.
	TypeNotFound Type = "NOT_FOUND"

	// TypeStorage indicates a persistence failure.
	TypeStorage Type = "STORAGE_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error is a domain error with a category and optional context.
type Error struct {
	Type    Type           `json:"type"`
	Message string         `json:"message"`
	Cause   error          `json:"-"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds a key/value pair to the error context.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New creates a new error.
func New(errType Type, message string) *Error {
	return &Error{Type: errType, Message: message}
}

// Newf creates a new formatted error.
func Newf(errType Type, format string, args ...any) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps cause with a category and message.
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{Type: errType, Message: message, Cause: cause}
}

// IsType reports whether any error in err's chain is an *Error of type t.
func IsType(err error, t Type) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// TypeOf returns the category of err, or TypeInternal when err carries none.
func TypeOf(err error) Type {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return TypeInternal
}

// Config creates a configuration error.
func Config(format string, args ...any) *Error {
	return Newf(TypeConfig, format, args...)
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *Error {
	return Newf(TypeNotFound, format, args...)
}
