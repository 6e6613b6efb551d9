// Package apperror defines the application's error taxonomy.
//
// Services return errors built from these sentinels; the HTTP layer maps
// them to status codes in one place (handler/response.go). The taxonomy is
// deliberately small: every failure the core can produce falls into exactly
// one of these kinds.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrClient marks a malformed request (bad body, missing params) → 400.
	ErrClient = errors.New("bad request")
	// ErrUnauthenticated marks a missing/invalid/expired session → 401.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound marks a missing resource → 404.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks a manifest that fails schema rules → 422.
	ErrValidation = errors.New("validation failed")
	// ErrUpstream marks a failed call to a remote collaborator → 502.
	ErrUpstream = errors.New("upstream error")
)

// AppError carries a taxonomy sentinel plus a human-readable message.
type AppError struct {
	Err     error  // one of the sentinels above
	Message string // human-readable description
	Field   string // optional: field/path that caused a validation failure
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// BadRequest returns an AppError for a malformed request.
func BadRequest(message string) *AppError {
	return &AppError{Err: ErrClient, Message: message}
}

// Unauthenticated returns an AppError for a request with no valid session.
func Unauthenticated(message string) *AppError {
	return &AppError{Err: ErrUnauthenticated, Message: message}
}

// NotFound returns an AppError for a missing resource.
func NotFound(resource, key string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, key),
	}
}

// ValidationFailed returns an AppError naming the first offending field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Upstream returns an AppError for a failed remote call.
func Upstream(message string) *AppError {
	return &AppError{Err: ErrUpstream, Message: message}
}
