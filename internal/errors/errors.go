// Package errors defines the application error model. Every failure a
// handler can surface to a client is an *Error carrying an HTTP status;
// anything else is treated as an internal error and masked.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a client-visible failure with an associated HTTP status.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// NotFound reports a missing resource.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: fmt.Sprintf(format, args...)}
}

// Conflict reports an in-use or duplicate resource.
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusConflict, Code: "CONFLICT", Message: fmt.Sprintf(format, args...)}
}

// Invalid reports a validation failure.
func Invalid(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "INVALID", Message: fmt.Sprintf(format, args...)}
}

// Unauthorized reports a missing or bad credential.
func Unauthorized(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: fmt.Sprintf(format, args...)}
}

// Forbidden reports an authenticated caller lacking permission.
func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected error. The message shown to clients is
// generic; the cause is carried for logging only.
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "INTERNAL", Message: "an unexpected error occurred", Err: err}
}

// WithCause attaches an underlying error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// StatusOf returns the HTTP status for err, defaulting to 500.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether err is a not-found application error.
func IsNotFound(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Status == http.StatusNotFound
}

// IsConflict reports whether err is a conflict application error.
func IsConflict(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Status == http.StatusConflict
}
