// Package apperror defines the error taxonomy shared by the service and
// handler layers.
//
// Services return *AppError values (possibly wrapped with fmt.Errorf("...: %w")).
// Handlers use errors.Is against the sentinels below to pick an HTTP status,
// and show AppError.Message to the user. The sentinel is the "kind" of the
// failure; the Message is what the person in front of the screen reads.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrReadFailed   = errors.New("read failed")
	ErrWriteFailed  = errors.New("write failed")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying store/transport error, for logs only
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// NoSession is the precondition failure for operations that need a signed-in
// user. HTTP handlers map this to 401 Unauthorized.
func NoSession() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "no user logged in",
	}
}

// Unauthorized reports bad credentials or an unusable token.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// ReadFailed wraps a store error raised while loading what.
func ReadFailed(what string, cause error) *AppError {
	return &AppError{
		Err:     ErrReadFailed,
		Message: fmt.Sprintf("failed to load %s", what),
		Cause:   cause,
	}
}

// WriteFailed wraps a store error raised while saving what.
func WriteFailed(what string, cause error) *AppError {
	return &AppError{
		Err:     ErrWriteFailed,
		Message: fmt.Sprintf("failed to save %s", what),
		Cause:   cause,
	}
}
