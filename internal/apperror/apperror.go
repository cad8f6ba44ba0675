// Package apperror defines the error taxonomy shared by services and handlers.
// Services return *AppError values; handlers map the Kind to an HTTP status.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an AppError.
type Kind string

const (
	KindValidation       Kind = "validation_error"
	KindConflict         Kind = "conflict"
	KindAuth             Kind = "unauthorized"
	KindPermission       Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindMethodNotAllowed Kind = "method_not_allowed"
)

// Sentinels for errors.Is checks. Every AppError unwraps to the sentinel of its kind.
var (
	ErrValidation       = errors.New("validation error")
	ErrConflict         = errors.New("conflict")
	ErrAuth             = errors.New("authentication failed")
	ErrPermission       = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

var sentinels = map[Kind]error{
	KindValidation:       ErrValidation,
	KindConflict:         ErrConflict,
	KindAuth:             ErrAuth,
	KindPermission:       ErrPermission,
	KindNotFound:         ErrNotFound,
	KindMethodNotAllowed: ErrMethodNotAllowed,
}

type AppError struct {
	Kind    Kind
	Message string // human readable, safe to return to clients
	Field   string // optional: offending input field
	Err     error  // underlying cause, never exposed
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the kind sentinel and the wrapped cause.
func (e *AppError) Unwrap() []error {
	out := []error{sentinels[e.Kind]}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func Validation(field, message string) *AppError {
	return &AppError{Kind: KindValidation, Field: field, Message: message}
}

func Conflict(field, message string) *AppError {
	return &AppError{Kind: KindConflict, Field: field, Message: message}
}

func Auth(message string) *AppError {
	return &AppError{Kind: KindAuth, Message: message}
}

func Permission(message string) *AppError {
	return &AppError{Kind: KindPermission, Message: message}
}

func NotFound(resource, key string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s %q not found", resource, key),
	}
}

func MethodNotAllowed(method string) *AppError {
	return &AppError{
		Kind:    KindMethodNotAllowed,
		Message: fmt.Sprintf("method %s is not allowed on this resource", method),
	}
}

// Wrap attaches an underlying cause to an AppError.
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// As extracts the first *AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
