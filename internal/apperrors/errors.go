// Package apperrors defines the error kinds returned by services and their HTTP mapping
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindAlreadyExists
	KindConflict
	KindAlreadyEnrolled
	KindInvalidState
	KindPaymentProvider
	KindPaymentFailed
	KindDataIntegrity
)

// Error is a domain error carrying a kind and a client-facing message
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
// Sentinels below carry no message, so errors.Is(err, ErrNotFound) matches any not found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Sentinels for errors.Is checks
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrAlreadyExists   = &Error{Kind: KindAlreadyExists}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrAlreadyEnrolled = &Error{Kind: KindAlreadyEnrolled}
	ErrInvalidState    = &Error{Kind: KindInvalidState}
	ErrPaymentProvider = &Error{Kind: KindPaymentProvider}
	ErrPaymentFailed   = &Error{Kind: KindPaymentFailed}
	ErrDataIntegrity   = &Error{Kind: KindDataIntegrity}
)

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error { return newf(KindValidation, format, args...) }

func Unauthenticated(format string, args ...any) error {
	return newf(KindUnauthenticated, format, args...)
}

func Forbidden(format string, args ...any) error { return newf(KindForbidden, format, args...) }

func NotFound(format string, args ...any) error { return newf(KindNotFound, format, args...) }

func AlreadyExists(format string, args ...any) error {
	return newf(KindAlreadyExists, format, args...)
}

func Conflict(format string, args ...any) error { return newf(KindConflict, format, args...) }

func AlreadyEnrolled(format string, args ...any) error {
	return newf(KindAlreadyEnrolled, format, args...)
}

func InvalidState(format string, args ...any) error {
	return newf(KindInvalidState, format, args...)
}

func PaymentFailed(format string, args ...any) error {
	return newf(KindPaymentFailed, format, args...)
}

func DataIntegrity(format string, args ...any) error {
	return newf(KindDataIntegrity, format, args...)
}

// PaymentProvider wraps a gateway error
func PaymentProvider(err error, format string, args ...any) error {
	e := newf(KindPaymentProvider, format, args...)
	e.Err = err
	return e
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to its response status code
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindAlreadyExists, KindConflict, KindAlreadyEnrolled,
		KindInvalidState, KindPaymentProvider, KindPaymentFailed:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message that may be shown to a client.
// Errors without a domain kind are hidden behind a generic message.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Error()
	}
	return "internal server error"
}
