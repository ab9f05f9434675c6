// Package apperror defines the error kinds the HTTP layer knows how to
// render. Services wrap one of the sentinels in an AppError; handlers map
// the sentinel to a status code and show only Message to the client.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// InvalidCredentials is the only message a failed login ever produces.
// Unknown identity, wrong password and ambiguous identity all read the same.
const InvalidCredentials = "invalid credentials"

type AppError struct {
	Err     error  // sentinel kind
	Message string // safe to show to the client
	Field   string // optional: request field at fault
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

// Conflict reports a uniqueness violation on a resource key, such as an
// identity that is already registered.
func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists: %s", resource, key),
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

// Unauthorized is returned for every failed login. HTTP handlers map it to
// 401 with the fixed InvalidCredentials message.
func Unauthorized() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: InvalidCredentials,
	}
}
