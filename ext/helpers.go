package ext

import (
	"github.com/cyw0ng95/flint/internal/SF/errors"
)

// Variadic marks a Func without an upper arity bound.
const Variadic = -1

// Func adapts plain functions to FunctionExtension. Arity is checked before
// Return or Exec is called.
type Func struct {
	FuncName string
	MinArgs  int
	MaxArgs  int
	Return   func(args []DataType) (DataType, error)
	Exec     func(args []Value) (Value, error)
}

func (f *Func) Name() string { return f.FuncName }

func (f *Func) ReturnType(args []DataType) (DataType, error) {
	if err := CheckArity(f.FuncName, len(args), f.MinArgs, f.MaxArgs); err != nil {
		return DataType{}, err
	}
	return f.Return(args)
}

func (f *Func) Execute(args []Value) (Value, error) {
	if err := CheckArity(f.FuncName, len(args), f.MinArgs, f.MaxArgs); err != nil {
		return Value{}, err
	}
	return f.Exec(args)
}

// Returns is a Return func with a fixed result type.
func Returns(dt DataType) func([]DataType) (DataType, error) {
	return func([]DataType) (DataType, error) { return dt, nil }
}

// BinaryOperator adapts plain functions to OperatorExtension.
type BinaryOperator struct {
	Sym    string
	Match  func(left, right DataType) bool
	Result func(left, right DataType) DataType
	Exec   func(left, right Value) (Value, error)
}

func (o *BinaryOperator) Symbol() string                           { return o.Sym }
func (o *BinaryOperator) Accepts(left, right DataType) bool        { return o.Match(left, right) }
func (o *BinaryOperator) ReturnType(left, right DataType) DataType { return o.Result(left, right) }
func (o *BinaryOperator) Execute(left, right Value) (Value, error) { return o.Exec(left, right) }

// Both matches when left and right both satisfy pred.
func Both(pred func(DataType) bool) func(left, right DataType) bool {
	return func(l, r DataType) bool { return pred(l) && pred(r) }
}

// Pair matches exactly the given operand identities.
func Pair(left, right TypeID) func(l, r DataType) bool {
	return func(l, r DataType) bool { return l.Is(left) && r.Is(right) }
}

// ResultOf is a Result func with a fixed type.
func ResultOf(dt DataType) func(left, right DataType) DataType {
	return func(DataType, DataType) DataType { return dt }
}

// CheckArity fails with FLINT_ARITY when n is outside [min, max]. A max of
// Variadic means no upper bound.
func CheckArity(fn string, n, min, max int) error {
	if n < min || (max != Variadic && n > max) {
		switch {
		case min == max:
			return errors.New(errors.FLINT_ARITY, "%s() takes %d argument(s), got %d", fn, min, n)
		case max == Variadic:
			return errors.New(errors.FLINT_ARITY, "%s() takes at least %d argument(s), got %d", fn, min, n)
		default:
			return errors.New(errors.FLINT_ARITY, "%s() takes %d to %d arguments, got %d", fn, min, max, n)
		}
	}
	return nil
}

// CheckArgKind fails with FLINT_TYPE unless v has one of kinds.
func CheckArgKind(fn string, pos int, v Value, kinds ...Kind) error {
	for _, k := range kinds {
		if v.Kind() == k {
			return nil
		}
	}
	return errors.New(errors.FLINT_TYPE, "%s(): argument %d has kind %s, want %v", fn, pos+1, v.Kind(), kinds)
}

// CheckArgType fails with FLINT_TYPE unless dt satisfies ok.
func CheckArgType(fn string, pos int, dt DataType, ok bool, want string) error {
	if ok {
		return nil
	}
	return errors.New(errors.FLINT_TYPE, "%s(): argument %d has type %s, want %s", fn, pos+1, dt, want)
}

// AnyNull reports whether any value is NULL.
func AnyNull(args ...Value) bool {
	for _, a := range args {
		if a.IsNull() {
			return true
		}
	}
	return false
}
