package apperr

import (
	"errors"
	"fmt"
)

// Kind is the category of a failure. Transport layers map kinds to status codes.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindRateLimit    Kind = "rate_limit"
	KindInternal     Kind = "internal"
)

// Error is a categorized failure with a caller-safe message.
// Err carries the cause and is never shown to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error

	// Fields holds per-field messages for validation failures.
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrUnauthorized) works
// regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error   { return New(KindValidation, message, nil) }
func Unauthorized(message string) *Error { return New(KindUnauthorized, message, nil) }
func Forbidden(message string) *Error    { return New(KindForbidden, message, nil) }
func NotFound(message string) *Error     { return New(KindNotFound, message, nil) }
func Conflict(message string) *Error     { return New(KindConflict, message, nil) }
func RateLimited(message string) *Error  { return New(KindRateLimit, message, nil) }

// InvalidFields is a validation error carrying per-field messages.
func InvalidFields(message string, fields map[string]string) *Error {
	e := New(KindValidation, message, nil)
	e.Fields = fields
	return e
}

// Internal wraps an unexpected failure behind a generic message.
func Internal(err error) *Error {
	return New(KindInternal, "internal server error", err)
}

var (
	ErrValidation   = Validation("invalid input")
	ErrUnauthorized = Unauthorized("unauthorized")
	ErrForbidden    = Forbidden("forbidden")
	ErrNotFound     = NotFound("not found")
	ErrConflict     = Conflict("conflict")
	ErrRateLimit    = RateLimited("too many attempts")
	ErrInternal     = Internal(nil)
)

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage is what may be returned to a client for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}

// FieldsOf returns the per-field messages attached to a validation error.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
