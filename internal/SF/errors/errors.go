// Package errors is the engine's error taxonomy. Every failure the
// extensibility core reports carries an ErrorCode, a stack (via
// cockroachdb/errors) and maps onto a PostgreSQL SQLSTATE.
package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// ErrorCode classifies an engine error.
type ErrorCode int32

const (
	FLINT_OK ErrorCode = iota
	FLINT_ERROR
	FLINT_CONFLICT
	FLINT_NOTFOUND
	FLINT_DECODE
	FLINT_EXEC
	FLINT_ARITY
	FLINT_TYPE
	FLINT_INDEX
	FLINT_MISUSE
	FLINT_INTERNAL
)

var codeNames = map[ErrorCode]string{
	FLINT_OK:       "FLINT_OK",
	FLINT_ERROR:    "FLINT_ERROR",
	FLINT_CONFLICT: "FLINT_CONFLICT",
	FLINT_NOTFOUND: "FLINT_NOTFOUND",
	FLINT_DECODE:   "FLINT_DECODE",
	FLINT_EXEC:     "FLINT_EXEC",
	FLINT_ARITY:    "FLINT_ARITY",
	FLINT_TYPE:     "FLINT_TYPE",
	FLINT_INDEX:    "FLINT_INDEX",
	FLINT_MISUSE:   "FLINT_MISUSE",
	FLINT_INTERNAL: "FLINT_INTERNAL",
}

func (c ErrorCode) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("FLINT_UNKNOWN(%d)", int32(c))
}

// IsExecution reports whether c is ExecutionError or one of its typed
// sub-cases.
func (c ErrorCode) IsExecution() bool {
	return c == FLINT_EXEC || c == FLINT_ARITY || c == FLINT_TYPE
}

// Error is a structured engine error.
type Error struct {
	Code     ErrorCode
	Message  string
	Err      error
	SQLState string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same Code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New returns an error with code and a formatted message. The result carries
// a stack trace.
func New(code ErrorCode, format string, args ...interface{}) error {
	return crdb.WithStackDepth(&Error{Code: code, Message: fmt.Sprintf(format, args...)}, 1)
}

// Wrap returns an error with code whose cause is err. A nil err yields nil.
func Wrap(err error, code ErrorCode, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return crdb.WithStackDepth(&Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}, 1)
}

// WithDetail attaches a user-facing detail string to err.
func WithDetail(err error, detail string) error {
	return crdb.WithDetail(err, detail)
}

// AssertionFailedf reports a broken internal invariant.
func AssertionFailedf(format string, args ...interface{}) error {
	cause := crdb.AssertionFailedWithDepthf(1, format, args...)
	return &Error{Code: FLINT_INTERNAL, Message: "assertion failed", Err: cause}
}

// CodeOf returns the ErrorCode carried by err. nil maps to FLINT_OK and an
// untyped error to FLINT_ERROR.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return FLINT_OK
	}
	var e *Error
	if crdb.As(err, &e) {
		return e.Code
	}
	if crdb.HasAssertionFailure(err) {
		return FLINT_INTERNAL
	}
	return FLINT_ERROR
}

// IsCode reports whether err carries code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// Is forwards to cockroachdb/errors so callers need a single import.
func Is(err, target error) bool { return crdb.Is(err, target) }

// As forwards to cockroachdb/errors.
func As(err error, target interface{}) bool { return crdb.As(err, target) }
