// Package apperr defines the typed faults raised by handlers and middleware.
// A single translator renders them; nothing else writes error responses.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type Kind int

const (
	Internal Kind = iota
	Unauthorized
	ServiceUnavailable
	Validation
	NotFound
	Conflict
	RateLimited
	PayloadTooLarge
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case ServiceUnavailable:
		return "service_unavailable"
	case Validation:
		return "validation_error"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case RateLimited:
		return "rate_limited"
	case PayloadTooLarge:
		return "payload_too_large"
	default:
		return "internal_error"
	}
}

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case Unauthorized:
		return http.StatusUnauthorized
	case ServiceUnavailable:
		return http.StatusServiceUnavailable
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case RateLimited:
		return http.StatusTooManyRequests
	case PayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// Error is a client-presentable fault. Message is safe to show to the caller;
// Err keeps the underlying cause together with its stack trace.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for the fault.
func (e *Error) Status() int { return e.Kind.Status() }

// StackTrace formats the cause with its recorded stack frames.
func (e *Error) StackTrace() string {
	if e.Err == nil {
		return ""
	}
	return fmt.Sprintf("%+v", e.Err)
}

// New creates a fault whose stack trace starts at the caller.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: errors.New(message)}
}

// Wrap attaches a kind and client message to an underlying error.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return New(kind, message)
	}
	return &Error{Kind: kind, Message: message, Err: errors.WithStack(err)}
}

// From converts any error into a fault. Unclassified errors become Internal
// with a generic message so internal detail never reaches the client.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, Internal, "Internal Server Error")
}

// Is reports whether err is a fault of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func Unauthorizedf(format string, args ...any) *Error {
	return New(Unauthorized, fmt.Sprintf(format, args...))
}

func Validationf(format string, args ...any) *Error {
	return New(Validation, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) *Error {
	return New(NotFound, fmt.Sprintf(format, args...))
}
