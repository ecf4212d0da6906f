// Package apierrors provides the structured error taxonomy shared by every
// lifecycle component. All codes are namespaced (e.g., "core:validation_failed",
// "lifecycle:state_conflict").
package apierrors

import "net/http"

// Core error codes - registered automatically at init
const (
	// Authentication & Authorization
	CodeUnauthorized = "core:unauthorized"
	CodeForbidden    = "core:forbidden"
	CodeInvalidToken = "core:invalid_token"
	CodeTokenExpired = "core:token_expired"

	// Request errors
	CodeInvalidRequest   = "core:invalid_request"
	CodeValidationFailed = "core:validation_failed"

	// Resource errors
	CodeNotFound          = "core:not_found"
	CodeReferenceNotFound = "core:reference_not_found"

	// Throttling
	CodeRateLimited = "core:rate_limited"

	// Lifecycle errors
	CodeStateConflict      = "lifecycle:state_conflict"
	CodeIntegrityViolation = "lifecycle:integrity_violation"

	// Server errors
	CodeInternalError = "core:internal_error"
)

// coreErrors defines all error codes with their default messages and HTTP status
var coreErrors = []ErrorCode{
	{Code: CodeUnauthorized, Message: "Authentication required", HTTPStatus: http.StatusUnauthorized},
	{Code: CodeForbidden, Message: "Permission denied", HTTPStatus: http.StatusForbidden},
	{Code: CodeInvalidToken, Message: "Invalid or malformed token", HTTPStatus: http.StatusUnauthorized},
	{Code: CodeTokenExpired, Message: "Token has expired", HTTPStatus: http.StatusUnauthorized},

	{Code: CodeInvalidRequest, Message: "Invalid request body", HTTPStatus: http.StatusBadRequest},
	{Code: CodeValidationFailed, Message: "Request validation failed", HTTPStatus: http.StatusBadRequest},

	{Code: CodeNotFound, Message: "Resource not found", HTTPStatus: http.StatusNotFound},
	{Code: CodeReferenceNotFound, Message: "Referenced code not found", HTTPStatus: http.StatusBadRequest},

	{Code: CodeRateLimited, Message: "Too many requests", HTTPStatus: http.StatusTooManyRequests},

	{Code: CodeStateConflict, Message: "Operation not valid in current state", HTTPStatus: http.StatusBadRequest},
	{Code: CodeIntegrityViolation, Message: "Database constraint violated", HTTPStatus: http.StatusBadRequest},

	{Code: CodeInternalError, Message: "Internal server error", HTTPStatus: http.StatusInternalServerError},
}

func init() {
	for _, e := range coreErrors {
		Registry.Register(e)
	}
}
