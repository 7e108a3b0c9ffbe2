package ext

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/cyw0ng95/flint/internal/SF/errors"
)

func builtinFunctions(types *TypeRegistry) []FunctionExtension {
	fns := []*Func{
		numericUnary("abs", func(n int64) (int64, error) {
			if n == math.MinInt64 {
				return 0, errIntRange
			}
			if n < 0 {
				return -n, nil
			}
			return n, nil
		}, math.Abs),
		numericUnary("ceil", identityInt, math.Ceil),
		numericUnary("floor", identityInt, math.Floor),
		{
			FuncName: "round",
			MinArgs:  1,
			MaxArgs:  2,
			Return: func(args []DataType) (DataType, error) {
				if err := CheckArgType("round", 0, args[0], args[0].IsNumeric() || args[0].IsNull(), "numeric"); err != nil {
					return DataType{}, err
				}
				if len(args) == 2 {
					if err := CheckArgType("round", 1, args[1], args[1].Kind() == KindInt || args[1].IsNull(), "int"); err != nil {
						return DataType{}, err
					}
				}
				if args[0].Kind() == KindInt {
					return TypeInt, nil
				}
				return TypeFloat, nil
			},
			Exec: func(args []Value) (Value, error) {
				if AnyNull(args...) {
					return Null(), nil
				}
				if err := CheckArgKind("round", 0, args[0], KindInt, KindFloat); err != nil {
					return Value{}, err
				}
				var digits int64
				if len(args) == 2 {
					if err := CheckArgKind("round", 1, args[1], KindInt); err != nil {
						return Value{}, err
					}
					digits, _ = args[1].AsInt()
				}
				if n, ok := args[0].AsInt(); ok {
					return Int(n), nil
				}
				f, _ := args[0].AsFloat()
				p := math.Pow(10, float64(digits))
				return Float(math.Round(f*p) / p), nil
			},
		},
		{
			FuncName: "length",
			MinArgs:  1,
			MaxArgs:  1,
			Return:   textArgs("length", TypeInt),
			Exec: func(args []Value) (Value, error) {
				if args[0].IsNull() {
					return Null(), nil
				}
				if err := CheckArgKind("length", 0, args[0], KindText); err != nil {
					return Value{}, err
				}
				s, _ := args[0].AsText()
				return Int(int64(utf8.RuneCountInString(s))), nil
			},
		},
		textUnary("lower", strings.ToLower),
		textUnary("upper", strings.ToUpper),
		textUnary("trim", strings.TrimSpace),
		{
			FuncName: "substr",
			MinArgs:  2,
			MaxArgs:  3,
			Return: func(args []DataType) (DataType, error) {
				if err := CheckArgType("substr", 0, args[0], args[0].Kind() == KindText || args[0].IsNull(), "text"); err != nil {
					return DataType{}, err
				}
				for i := 1; i < len(args); i++ {
					if err := CheckArgType("substr", i, args[i], args[i].Kind() == KindInt || args[i].IsNull(), "int"); err != nil {
						return DataType{}, err
					}
				}
				return TypeText, nil
			},
			Exec: execSubstr,
		},
		{
			FuncName: "coalesce",
			MinArgs:  1,
			MaxArgs:  Variadic,
			Return: func(args []DataType) (DataType, error) {
				for _, a := range args {
					if !a.IsNull() {
						return a, nil
					}
				}
				return TypeNull, nil
			},
			Exec: func(args []Value) (Value, error) {
				for _, a := range args {
					if !a.IsNull() {
						return a, nil
					}
				}
				return Null(), nil
			},
		},
		{
			FuncName: "nullif",
			MinArgs:  2,
			MaxArgs:  2,
			Return:   func(args []DataType) (DataType, error) { return args[0], nil },
			Exec: func(args []Value) (Value, error) {
				if args[0].Equal(args[1]) {
					return Null(), nil
				}
				return args[0], nil
			},
		},
		{
			FuncName: "typeof",
			MinArgs:  1,
			MaxArgs:  1,
			Return:   Returns(TypeText),
			Exec: func(args []Value) (Value, error) {
				if dt, ok := BuiltinDataType(args[0].Kind()); ok {
					return Text(dt.Name()), nil
				}
				dt, ok := types.DataType(args[0].TypeID())
				if !ok {
					return Value{}, errors.New(errors.FLINT_NOTFOUND, "typeof(): unregistered type identity %d", args[0].TypeID())
				}
				return Text(dt.Name()), nil
			},
		},
	}
	out := make([]FunctionExtension, len(fns))
	for i := range fns {
		out[i] = fns[i]
	}
	return out
}

func identityInt(n int64) (int64, error) { return n, nil }

func numericUnary(name string, intFn func(int64) (int64, error), floatFn func(float64) float64) *Func {
	return &Func{
		FuncName: name,
		MinArgs:  1,
		MaxArgs:  1,
		Return: func(args []DataType) (DataType, error) {
			if err := CheckArgType(name, 0, args[0], args[0].IsNumeric() || args[0].IsNull(), "numeric"); err != nil {
				return DataType{}, err
			}
			if args[0].IsNull() {
				return TypeNull, nil
			}
			return args[0], nil
		},
		Exec: func(args []Value) (Value, error) {
			if args[0].IsNull() {
				return Null(), nil
			}
			if err := CheckArgKind(name, 0, args[0], KindInt, KindFloat); err != nil {
				return Value{}, err
			}
			if n, ok := args[0].AsInt(); ok {
				r, err := intFn(n)
				if err != nil {
					return Value{}, err
				}
				return Int(r), nil
			}
			f, _ := args[0].AsFloat()
			return Float(floatFn(f)), nil
		},
	}
}

func textArgs(name string, ret DataType) func([]DataType) (DataType, error) {
	return func(args []DataType) (DataType, error) {
		for i, a := range args {
			if err := CheckArgType(name, i, a, a.Kind() == KindText || a.IsNull(), "text"); err != nil {
				return DataType{}, err
			}
		}
		return ret, nil
	}
}

func textUnary(name string, fn func(string) string) *Func {
	return &Func{
		FuncName: name,
		MinArgs:  1,
		MaxArgs:  1,
		Return:   textArgs(name, TypeText),
		Exec: func(args []Value) (Value, error) {
			if args[0].IsNull() {
				return Null(), nil
			}
			if err := CheckArgKind(name, 0, args[0], KindText); err != nil {
				return Value{}, err
			}
			s, _ := args[0].AsText()
			return Text(fn(s)), nil
		},
	}
}

// execSubstr uses 1-based rune positions; a start before the first rune
// shortens the requested length accordingly.
func execSubstr(args []Value) (Value, error) {
	if AnyNull(args...) {
		return Null(), nil
	}
	if err := CheckArgKind("substr", 0, args[0], KindText); err != nil {
		return Value{}, err
	}
	for i := 1; i < len(args); i++ {
		if err := CheckArgKind("substr", i, args[i], KindInt); err != nil {
			return Value{}, err
		}
	}
	s, _ := args[0].AsText()
	runes := []rune(s)
	start, _ := args[1].AsInt()
	end := int64(len(runes)) + 1
	if len(args) == 3 {
		n, _ := args[2].AsInt()
		if n < 0 {
			return Value{}, errors.New(errors.FLINT_EXEC, "substr(): negative length %d", n)
		}
		end = start + n
	}
	if start < 1 {
		start = 1
	}
	if end > int64(len(runes))+1 {
		end = int64(len(runes)) + 1
	}
	if start >= end {
		return Text(""), nil
	}
	return Text(string(runes[start-1 : end-1])), nil
}
