package ext

import (
	"cmp"
	"math"
	"strings"

	"github.com/cyw0ng95/flint/internal/SF/errors"
)

func builtinOperators() []OperatorExtension {
	ops := []*BinaryOperator{
		arith("+", addInt, func(a, b float64) (float64, error) { return a + b, nil }),
		arith("-", subInt, func(a, b float64) (float64, error) { return a - b, nil }),
		arith("*", mulInt, func(a, b float64) (float64, error) { return a * b, nil }),
		arith("/", divInt, divFloat),
		arith("%", modInt, modFloat),
		{
			// absolute difference, the scalar counterpart of vector distance
			Sym:    "<->",
			Match:  Both(DataType.IsNumeric),
			Result: ResultOf(TypeFloat),
			Exec: func(l, r Value) (Value, error) {
				a, ok1 := l.Float64()
				b, ok2 := r.Float64()
				if !ok1 || !ok2 {
					return Value{}, operandError("<->", l, r)
				}
				return Float(math.Abs(a - b)), nil
			},
		},
		{
			Sym:    "||",
			Match:  Both(func(d DataType) bool { return d.Kind() == KindText }),
			Result: ResultOf(TypeText),
			Exec: func(l, r Value) (Value, error) {
				a, ok1 := l.AsText()
				b, ok2 := r.AsText()
				if !ok1 || !ok2 {
					return Value{}, operandError("||", l, r)
				}
				return Text(a + b), nil
			},
		},
		logical("AND", func(a, b bool) bool { return a && b }),
		logical("OR", func(a, b bool) bool { return a || b }),
	}
	for _, c := range []struct {
		sym  string
		test func(int) bool
	}{
		{"=", func(c int) bool { return c == 0 }},
		{"<>", func(c int) bool { return c != 0 }},
		{"!=", func(c int) bool { return c != 0 }},
		{"<", func(c int) bool { return c < 0 }},
		{"<=", func(c int) bool { return c <= 0 }},
		{">", func(c int) bool { return c > 0 }},
		{">=", func(c int) bool { return c >= 0 }},
	} {
		ops = append(ops, comparison(c.sym, c.test))
	}
	out := make([]OperatorExtension, len(ops))
	for i := range ops {
		out[i] = ops[i]
	}
	return out
}

func operandError(sym string, l, r Value) error {
	return errors.New(errors.FLINT_TYPE, "operator %s: unsupported operands (%s, %s)", sym, l.Kind(), r.Kind())
}

func arith(sym string, intOp func(a, b int64) (int64, error), floatOp func(a, b float64) (float64, error)) *BinaryOperator {
	return &BinaryOperator{
		Sym:   sym,
		Match: Both(DataType.IsNumeric),
		Result: func(l, r DataType) DataType {
			if l.Kind() == KindInt && r.Kind() == KindInt {
				return TypeInt
			}
			return TypeFloat
		},
		Exec: func(l, r Value) (Value, error) {
			if a, ok := l.AsInt(); ok {
				if b, ok := r.AsInt(); ok {
					n, err := intOp(a, b)
					if err != nil {
						return Value{}, err
					}
					return Int(n), nil
				}
			}
			a, ok1 := l.Float64()
			b, ok2 := r.Float64()
			if !ok1 || !ok2 {
				return Value{}, operandError(sym, l, r)
			}
			f, err := floatOp(a, b)
			if err != nil {
				return Value{}, err
			}
			return Float(f), nil
		},
	}
}

var errIntRange = errors.New(errors.FLINT_EXEC, "integer out of range")

func addInt(a, b int64) (int64, error) {
	c := a + b
	if (c > a) != (b > 0) {
		return 0, errIntRange
	}
	return c, nil
}

func subInt(a, b int64) (int64, error) {
	c := a - b
	if (c < a) != (b > 0) {
		return 0, errIntRange
	}
	return c, nil
}

func mulInt(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	c := a * b
	if c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, errIntRange
	}
	return c, nil
}

func divInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, errors.New(errors.FLINT_EXEC, "division by zero")
	}
	if a == math.MinInt64 && b == -1 {
		return 0, errIntRange
	}
	return a / b, nil
}

func modInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, errors.New(errors.FLINT_EXEC, "division by zero")
	}
	if b == -1 {
		return 0, nil
	}
	return a % b, nil
}

func divFloat(a, b float64) (float64, error) {
	if b == 0 {
		return 0, errors.New(errors.FLINT_EXEC, "division by zero")
	}
	return a / b, nil
}

func modFloat(a, b float64) (float64, error) {
	if b == 0 {
		return 0, errors.New(errors.FLINT_EXEC, "division by zero")
	}
	return math.Mod(a, b), nil
}

func logical(sym string, fn func(a, b bool) bool) *BinaryOperator {
	return &BinaryOperator{
		Sym:    sym,
		Match:  Both(func(d DataType) bool { return d.Kind() == KindBool }),
		Result: ResultOf(TypeBool),
		Exec: func(l, r Value) (Value, error) {
			a, ok1 := l.AsBool()
			b, ok2 := r.AsBool()
			if !ok1 || !ok2 {
				return Value{}, operandError(sym, l, r)
			}
			return Bool(fn(a, b)), nil
		},
	}
}

func comparableTypes(l, r DataType) bool {
	if l.IsNumeric() && r.IsNumeric() {
		return true
	}
	return l.Kind() == r.Kind() && (l.Kind() == KindText || l.Kind() == KindBool)
}

func comparison(sym string, test func(int) bool) *BinaryOperator {
	return &BinaryOperator{
		Sym:    sym,
		Match:  comparableTypes,
		Result: ResultOf(TypeBool),
		Exec: func(l, r Value) (Value, error) {
			c, err := CompareScalars(l, r)
			if err != nil {
				return Value{}, err
			}
			return Bool(test(c)), nil
		},
	}
}

// CompareScalars orders two non-null built-in values. Ints and floats compare
// numerically with each other; text compares bytewise; false < true.
func CompareScalars(a, b Value) (int, error) {
	switch {
	case a.Kind() == KindInt && b.Kind() == KindInt:
		x, _ := a.AsInt()
		y, _ := b.AsInt()
		return cmp.Compare(x, y), nil
	case a.IsNumeric() && b.IsNumeric():
		x, _ := a.Float64()
		y, _ := b.Float64()
		return cmp.Compare(x, y), nil
	case a.Kind() == KindText && b.Kind() == KindText:
		return strings.Compare(a.str, b.str), nil
	case a.Kind() == KindBool && b.Kind() == KindBool:
		return cmp.Compare(a.bits, b.bits), nil
	}
	return 0, errors.New(errors.FLINT_TYPE, "cannot compare %s with %s", a.Kind(), b.Kind())
}
