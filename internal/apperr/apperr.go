// Package apperr defines the error codes the API surfaces to callers.
package apperr

import (
	"errors"
	"net/http"
)

type Code string

const (
	CodeInvalidArgument    Code = "invalid-argument"
	CodeUnauthenticated    Code = "unauthenticated"
	CodeFailedPrecondition Code = "failed-precondition"
	CodePermissionDenied   Code = "permission-denied"
	CodeNotFound           Code = "not-found"
	CodeAborted            Code = "aborted"
	CodeInternal           Code = "internal"
)

// HTTPStatus maps a code to its response status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeFailedPrecondition:
		return http.StatusPreconditionFailed
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAborted:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a caller-facing code and message. Err is for logs only.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func InvalidArgument(message string) *Error {
	return New(CodeInvalidArgument, message)
}

func PermissionDenied(message string) *Error {
	return New(CodePermissionDenied, message)
}

func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

func FailedPrecondition(message string) *Error {
	return New(CodeFailedPrecondition, message)
}

func Unauthenticated(message string) *Error {
	return New(CodeUnauthenticated, message)
}

func Internal(message string, err error) *Error {
	return Wrap(CodeInternal, message, err)
}

// From returns the *Error in err's chain. Anything else becomes an opaque
// internal error so store details never reach the caller.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("internal error", err)
}

// CodeOf returns the code of err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	return From(err).Code
}
