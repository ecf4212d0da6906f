package apierrors

import (
	"errors"
	"fmt"
)

// Error is the error type returned by lifecycle services. Code selects the
// HTTP mapping from the registry; Detail is the human-readable message sent
// in the response envelope.
type Error struct {
	Code   string
	Detail string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches two Errors by code so callers can use errors.Is with sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the registered HTTP status for this error's code.
func (e *Error) HTTPStatus() int {
	return Registry.HTTPStatus(e.Code)
}

// Validation reports a bad input shape or value (400).
func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidationFailed, Detail: fmt.Sprintf(format, args...)}
}

// ReferenceNotFound reports a missing or inactive lookup target (400).
func ReferenceNotFound(format string, args ...any) *Error {
	return &Error{Code: CodeReferenceNotFound, Detail: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing primary resource (404).
func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Detail: fmt.Sprintf(format, args...)}
}

// Unauthorized reports missing or invalid credentials (401).
func Unauthorized(format string, args ...any) *Error {
	return &Error{Code: CodeUnauthorized, Detail: fmt.Sprintf(format, args...)}
}

// Forbidden reports a caller lacking role or ownership for the action (403).
func Forbidden(format string, args ...any) *Error {
	return &Error{Code: CodeForbidden, Detail: fmt.Sprintf(format, args...)}
}

// StateConflict reports an operation invalid in the entity's current
// lifecycle state (400).
func StateConflict(format string, args ...any) *Error {
	return &Error{Code: CodeStateConflict, Detail: fmt.Sprintf(format, args...)}
}

// Integrity reports an underlying store constraint violation (400).
func Integrity(err error, format string, args ...any) *Error {
	return &Error{Code: CodeIntegrityViolation, Detail: fmt.Sprintf(format, args...), cause: err}
}

// Internal wraps an unexpected failure (500). The detail shown to clients is
// generic; the cause is preserved for server-side logging only.
func Internal(err error) *Error {
	return &Error{Code: CodeInternalError, Detail: "An unexpected error occurred", cause: err}
}

// AsError extracts an *Error from err, wrapping unknown errors as Internal.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
