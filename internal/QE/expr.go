package QE

import (
	"log/slog"
	"strings"

	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/cyw0ng95/flint/internal/log"
)

// ExprEvaluator evaluates operators and function calls by dispatching
// through a sealed catalog. It holds no mutable state and is safe for
// concurrent use.
type ExprEvaluator struct {
	cat *ext.Catalog
	log *slog.Logger
}

func NewExprEvaluator(cat *ext.Catalog, logger *slog.Logger) *ExprEvaluator {
	return &ExprEvaluator{cat: cat, log: log.OrDiscard(logger)}
}

// Catalog returns the catalog the evaluator dispatches through.
func (e *ExprEvaluator) Catalog() *ext.Catalog { return e.cat }

// normalizeSymbol upper-cases word operators (and, or) and leaves symbolic
// ones alone.
func normalizeSymbol(op string) string {
	op = strings.TrimSpace(op)
	for _, r := range op {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			return strings.ToUpper(op)
		}
	}
	return op
}

func isLogical(op string) bool { return op == "AND" || op == "OR" }

// BinaryOpType resolves the result type of left op right without executing.
func (e *ExprEvaluator) BinaryOpType(op string, left, right ext.DataType) (ext.DataType, error) {
	op = normalizeSymbol(op)
	if left.IsNull() || right.IsNull() {
		if isLogical(op) {
			return ext.TypeBool, nil
		}
		return ext.TypeNull, nil
	}
	res, err := e.resolve(op, left, right)
	if err != nil {
		return ext.DataType{}, err
	}
	return res.op.ReturnType(res.left, res.right), nil
}

// BinaryOp evaluates left op right. NULL operands yield NULL, except that
// AND and OR follow three-valued logic. When no operator accepts the operand
// types as given, ints are widened to float and text is parsed into the
// other operand's extension type before the lookup is retried.
func (e *ExprEvaluator) BinaryOp(op string, left, right ext.Value) (ext.Value, error) {
	op = normalizeSymbol(op)
	if left.IsNull() || right.IsNull() {
		return nullBinary(op, left, right)
	}
	lt, err := e.cat.TypeOf(left)
	if err != nil {
		return ext.Value{}, err
	}
	rt, err := e.cat.TypeOf(right)
	if err != nil {
		return ext.Value{}, err
	}
	res, err := e.resolve(op, lt, rt)
	if err != nil {
		return ext.Value{}, err
	}
	if left, err = res.convertLeft(left); err != nil {
		return ext.Value{}, err
	}
	if right, err = res.convertRight(right); err != nil {
		return ext.Value{}, err
	}
	out, err := res.op.Execute(left, right)
	if err != nil {
		return ext.Value{}, execError(err, "%s %s %s", lt, op, rt)
	}
	return out, nil
}

func nullBinary(op string, left, right ext.Value) (ext.Value, error) {
	if !isLogical(op) {
		return ext.Null(), nil
	}
	other := left
	if left.IsNull() {
		other = right
	}
	if other.IsNull() {
		return ext.Null(), nil
	}
	b, ok := other.AsBool()
	if !ok {
		return ext.Value{}, errors.New(errors.FLINT_TYPE, "%s needs boolean operands, got %s", op, other.Kind())
	}
	if op == "AND" && !b {
		return ext.Bool(false), nil
	}
	if op == "OR" && b {
		return ext.Bool(true), nil
	}
	return ext.Null(), nil
}

// Call invokes the named function. Lookup is case-insensitive.
func (e *ExprEvaluator) Call(name string, args ...ext.Value) (ext.Value, error) {
	fn, ok := e.cat.Function(name)
	if !ok {
		return ext.Value{}, errors.New(errors.FLINT_NOTFOUND, "function %s does not exist", name)
	}
	for i, a := range args {
		if _, err := e.cat.TypeOf(a); err != nil {
			return ext.Value{}, errors.Wrap(err, errors.FLINT_NOTFOUND, "%s(): argument %d", name, i+1)
		}
	}
	out, err := fn.Execute(args)
	if err != nil {
		return ext.Value{}, execError(err, "%s()", fn.Name())
	}
	return out, nil
}

// CallType resolves the result type of a call without executing it.
func (e *ExprEvaluator) CallType(name string, args ...ext.DataType) (ext.DataType, error) {
	fn, ok := e.cat.Function(name)
	if !ok {
		return ext.DataType{}, errors.New(errors.FLINT_NOTFOUND, "function %s does not exist", name)
	}
	return fn.ReturnType(args)
}

// Compare orders two values of the same or numerically compatible types.
// NULL sorts first. Extension values are ordered through their registered
// "=" and "<" operators.
func (e *ExprEvaluator) Compare(a, b ext.Value) (int, error) {
	switch {
	case a.IsNull() && b.IsNull():
		return 0, nil
	case a.IsNull():
		return -1, nil
	case b.IsNull():
		return 1, nil
	}
	if !a.IsExtension() && !b.IsExtension() {
		return ext.CompareScalars(a, b)
	}
	eq, err := e.BinaryOp("=", a, b)
	if err != nil {
		return 0, err
	}
	if v, _ := eq.AsBool(); v {
		return 0, nil
	}
	lt, err := e.BinaryOp("<", a, b)
	if err != nil {
		return 0, errors.Wrap(err, errors.FLINT_TYPE, "values are not ordered")
	}
	if v, _ := lt.AsBool(); v {
		return -1, nil
	}
	return 1, nil
}

// execError keeps typed execution errors and classifies anything else an
// extension returned as FLINT_EXEC.
func execError(err error, format string, args ...interface{}) error {
	code := errors.CodeOf(err)
	if code == errors.FLINT_ERROR {
		code = errors.FLINT_EXEC
	}
	return errors.Wrap(err, code, format, args...)
}
