package errors

import crdb "github.com/cockroachdb/errors"

// SQLSTATE codes (PostgreSQL / ISO/IEC 9075)
const (
	SQLState_OK                      = "00000"
	SQLState_DataException           = "22000"
	SQLState_InvalidBinaryRepr       = "22P03"
	SQLState_DatatypeMismatch        = "42804"
	SQLState_UndefinedFunction       = "42883"
	SQLState_UndefinedObject         = "42704"
	SQLState_DuplicateObject         = "42710"
	SQLState_ObjectNotInPrerequisite = "55000"
	SQLState_InternalError           = "XX000"
	SQLState_GeneralError            = "HY000"
)

// WithSQLState returns a copy of e with the given SQLState code.
func WithSQLState(e *Error, state string) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: e.Err, SQLState: state}
}

// SQLStateOf returns the SQLSTATE code for err, or "00000" if nil.
func SQLStateOf(err error) string {
	if err == nil {
		return SQLState_OK
	}
	var e *Error
	if crdb.As(err, &e) && e.SQLState != "" {
		return e.SQLState
	}
	switch CodeOf(err) {
	case FLINT_CONFLICT:
		return SQLState_DuplicateObject
	case FLINT_NOTFOUND:
		return SQLState_UndefinedObject
	case FLINT_DECODE:
		return SQLState_InvalidBinaryRepr
	case FLINT_EXEC, FLINT_INDEX:
		return SQLState_DataException
	case FLINT_ARITY:
		return SQLState_UndefinedFunction
	case FLINT_TYPE:
		return SQLState_DatatypeMismatch
	case FLINT_MISUSE:
		return SQLState_ObjectNotInPrerequisite
	case FLINT_INTERNAL:
		return SQLState_InternalError
	default:
		return SQLState_GeneralError
	}
}
