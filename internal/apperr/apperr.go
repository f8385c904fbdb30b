/*
Package apperr defines the error kinds that cross package boundaries and
their mapping onto HTTP statuses.
*/
package apperr

import (
	"errors"
	"net/http"
)

// Sentinel kinds. Match them with errors.Is.
var (
	ErrValidation      = errors.New("validation error")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrExternalService = errors.New("external service error")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// Error carries a kind, a caller-facing message and an optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return e != nil && target == e.Kind
}

func Validation(msg string) *Error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func QuotaExceeded(msg string) *Error {
	return &Error{Kind: ErrQuotaExceeded, Message: msg}
}

func External(msg string, err error) *Error {
	return &Error{Kind: ErrExternalService, Message: msg, Err: err}
}

func NotFound(msg string) *Error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func Conflict(msg string, err error) *Error {
	return &Error{Kind: ErrConflict, Message: msg, Err: err}
}

// HTTPStatus maps an error onto the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message that is safe to show to a client.
// Causes are never included; unknown errors collapse to a generic text.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.Message != "" {
			return appErr.Message
		}
		return appErr.Kind.Error()
	}
	return "Internal server error"
}
