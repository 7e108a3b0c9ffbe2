package flint

import "github.com/cyw0ng95/flint/internal/SF/errors"

// ErrorCode classifies an engine error.
type ErrorCode = errors.ErrorCode

// Error is the structured error every engine failure carries.
type Error = errors.Error

const (
	FLINT_OK       = errors.FLINT_OK
	FLINT_ERROR    = errors.FLINT_ERROR
	FLINT_CONFLICT = errors.FLINT_CONFLICT
	FLINT_NOTFOUND = errors.FLINT_NOTFOUND
	FLINT_DECODE   = errors.FLINT_DECODE
	FLINT_EXEC     = errors.FLINT_EXEC
	FLINT_ARITY    = errors.FLINT_ARITY
	FLINT_TYPE     = errors.FLINT_TYPE
	FLINT_INDEX    = errors.FLINT_INDEX
	FLINT_MISUSE   = errors.FLINT_MISUSE
	FLINT_INTERNAL = errors.FLINT_INTERNAL
)

// ErrorCodeOf returns the ErrorCode of err.
// Returns FLINT_OK for nil and FLINT_ERROR for errors the engine did not
// produce.
func ErrorCodeOf(err error) ErrorCode { return errors.CodeOf(err) }

// IsErrorCode reports whether err carries code.
func IsErrorCode(err error, code ErrorCode) bool { return errors.IsCode(err, code) }

// SQLState maps err onto a PostgreSQL SQLSTATE.
func SQLState(err error) string { return errors.SQLStateOf(err) }
