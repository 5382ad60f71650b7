// Package errors provides a coded error type shared by the store and the
// HTTP layer. Import it as perr.
package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// Code classifies an error for callers and for HTTP status mapping.
type Code uint16

const (
	CodeUnknown Code = iota
	CodeInvalidArgument
	CodeValidation
	CodeJSON
	CodeNotFound
	CodeDuplicateKey
	CodeConflict
	CodeForbidden
	CodeTooManyRequests
	CodeUnavailable
	CodeDB
)

// HTTPStatusCode maps a Code to an HTTP status.
func HTTPStatusCode(c Code) int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidArgument:
		return http.StatusUnprocessableEntity
	case CodeValidation, CodeJSON:
		return http.StatusBadRequest
	case CodeDuplicateKey, CodeConflict:
		return http.StatusConflict
	case CodeForbidden:
		return http.StatusForbidden
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a code, a message for people, an optional operation label
// and the wrapped cause.
type Error struct {
	orig error
	msg  string
	code Code
	op   string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code.
func (e *Error) Code() Code { return e.code }

// Msg returns the message without the wrapped cause.
func (e *Error) Msg() string { return e.msg }

// Op returns the operation label.
func (e *Error) Op() string { return e.op }

// New creates an error with a code.
func New(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// Newf creates an error with a code and a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap wraps orig with a code and message. Wrap(nil, ...) is nil.
func Wrap(orig error, code Code, msg string) error {
	if orig == nil {
		return nil
	}
	return &Error{orig: orig, code: code, msg: msg}
}

// WithOp returns a copy of e labelled with op.
func (e *Error) WithOp(op string) *Error {
	cp := *e
	cp.op = op
	return &cp
}

// CodeOf returns the code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if stderrs.As(err, &e) {
		return e.code
	}
	return CodeUnknown
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// Message returns the message of the first *Error in err's chain, falling
// back to err.Error().
func Message(err error) string {
	var e *Error
	if stderrs.As(err, &e) {
		return e.msg
	}
	return err.Error()
}
