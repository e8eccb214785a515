// Package apperror defines the error taxonomy shared by services and HTTP handlers.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation      Kind = "VALIDATION_ERROR"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindInvalidState    Kind = "INVALID_STATE"
	KindConflict        Kind = "CONFLICT"
	KindExpired         Kind = "EXPIRED"
	KindRateLimited     Kind = "RATE_LIMITED"
	KindInvalidCode     Kind = "INVALID_CODE"
	KindUpstream        Kind = "UPSTREAM_FAILURE"
	KindInternal        Kind = "INTERNAL"
)

// Error is a typed application error.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperror.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is comparisons by kind.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrInvalidState    = &Error{Kind: KindInvalidState}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrExpired         = &Error{Kind: KindExpired}
	ErrRateLimited     = &Error{Kind: KindRateLimited}
	ErrInvalidCode     = &Error{Kind: KindInvalidCode}
	ErrUpstream        = &Error{Kind: KindUpstream}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error { return New(KindValidation, message) }

// ValidationFields reports per-field validation failures.
func ValidationFields(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed!", Fields: fields}
}

func Unauthenticated(message string) *Error { return New(KindUnauthenticated, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func InvalidState(message string) *Error    { return New(KindInvalidState, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }
func Expired(message string) *Error         { return New(KindExpired, message) }

// RateLimited carries the number of seconds the caller should wait.
func RateLimited(message string, retryAfterSeconds int) *Error {
	return &Error{Kind: KindRateLimited, Message: message, Details: map[string]interface{}{"retryAfter": retryAfterSeconds}}
}

// InvalidCode reports a wrong OTP together with the attempts left.
func InvalidCode(message string, attemptsRemaining int) *Error {
	return &Error{Kind: KindInvalidCode, Message: message, Details: map[string]interface{}{"attemptsRemaining": attemptsRemaining}}
}

// Upstream wraps a failed third-party call.
func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// Internal wraps an unexpected failure (usually a database error).
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
