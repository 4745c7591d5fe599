// Package apperror defines the application's error taxonomy.
//
// Every layer returns these domain errors instead of HTTP status codes.
// The HTTP handlers translate them at the boundary (see handler/response.go):
//
//	ErrValidation      → 400 Bad Request
//	ErrUnauthenticated → 401 Unauthorized (write attempted with no principal)
//	ErrForbidden       → 403 Forbidden (write attempted by a non-owner)
//	ErrNotFound        → 404 Not Found
//	ErrUnsupported     → 500 (renderer rejected a language/style that passed
//	                     upstream validation — an internal consistency fault,
//	                     not a user error)
//
// Unauthenticated and Forbidden are deliberately distinct sentinels: the
// adapter maps the first to a challenge response and the second to a plain
// denial, so the two must stay distinguishable all the way up the chain.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrUnsupported     = errors.New("unsupported")
)

// FieldError describes a single per-field problem in a validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError wraps a sentinel error with a human-readable message and, for
// validation failures, a structured list of per-field problems.
type AppError struct {
	Err     error        // actual error (one of the sentinels above)
	Message string       // Human-readable error message
	Fields  []FieldError // per-field problems (validation errors only)
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

// ValidationFailed reports a single invalid field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Fields:  []FieldError{{Field: field, Message: message}},
	}
}

// ValidationFailedFields reports several invalid fields at once, so a client
// sees every problem in one response instead of fixing them one round-trip
// at a time.
func ValidationFailedFields(fields []FieldError) *AppError {
	msg := "validation failed"
	if len(fields) == 1 {
		msg = fields[0].Message
	}
	return &AppError{
		Err:     ErrValidation,
		Message: msg,
		Fields:  fields,
	}
}

// Unauthenticated returns an AppError for requests that need a logged-in
// principal but arrived without one. HTTP handlers map this to 401.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
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

// Unsupported returns an AppError for a renderer-side whitelist rejection.
// Unreachable when input passed boundary validation, so handlers treat it as
// an internal fault rather than a user error.
func Unsupported(kind, value string) *AppError {
	return &AppError{
		Err:     ErrUnsupported,
		Message: fmt.Sprintf("unsupported %s %q", kind, value),
	}
}
