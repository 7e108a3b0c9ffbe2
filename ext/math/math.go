// Package math implements the math module: power, roots, logarithms and
// related scalar functions over integer and real arguments.
//
// NULL arguments yield NULL. Arguments outside a function's domain (the
// square root of a negative number, a logarithm of zero, a modulus by
// zero) and results that are not finite also yield NULL. Non-numeric
// arguments fail with FLINT_TYPE.
package math

import (
	gomath "math"

	"github.com/cyw0ng95/flint/ext"
)

// Module registers the math functions.
type Module struct{}

func (Module) Name() string        { return "math" }
func (Module) Description() string { return "power, root, logarithm and sign functions" }

func (Module) Register(r *ext.Registries) error {
	for _, fn := range functions() {
		if err := r.Functions.Register(fn); err != nil {
			return err
		}
	}
	return nil
}

// ---------- helpers ----------

func numericArgs(fn string, ret func([]ext.DataType) ext.DataType) func([]ext.DataType) (ext.DataType, error) {
	return func(args []ext.DataType) (ext.DataType, error) {
		for i, a := range args {
			if err := ext.CheckArgType(fn, i, a, a.IsNumeric() || a.IsNull(), "numeric"); err != nil {
				return ext.DataType{}, err
			}
		}
		return ret(args), nil
	}
}

func realResult([]ext.DataType) ext.DataType { return ext.TypeFloat }

// floats checks and converts every argument. ok is false when any is NULL.
func floats(fn string, args []ext.Value) ([]float64, bool, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		if a.IsNull() {
			return nil, false, nil
		}
		if err := ext.CheckArgKind(fn, i, a, ext.KindInt, ext.KindFloat); err != nil {
			return nil, false, err
		}
		out[i], _ = a.Float64()
	}
	return out, true, nil
}

func finite(f float64) ext.Value {
	if gomath.IsNaN(f) || gomath.IsInf(f, 0) {
		return ext.Null()
	}
	return ext.Float(f)
}

// realFunc builds a function of real arguments; body reports false for
// arguments outside its domain.
func realFunc(name string, minArgs, maxArgs int, body func(x []float64) (float64, bool)) *ext.Func {
	return &ext.Func{
		FuncName: name,
		MinArgs:  minArgs,
		MaxArgs:  maxArgs,
		Return:   numericArgs(name, realResult),
		Exec: func(args []ext.Value) (ext.Value, error) {
			x, ok, err := floats(name, args)
			if err != nil || !ok {
				return ext.Null(), err
			}
			r, ok := body(x)
			if !ok {
				return ext.Null(), nil
			}
			return finite(r), nil
		},
	}
}

func positive(f func(float64) float64) func([]float64) (float64, bool) {
	return func(x []float64) (float64, bool) {
		if x[0] <= 0 {
			return 0, false
		}
		return f(x[0]), true
	}
}

// ---------- function implementations ----------

func evalPower(x []float64) (float64, bool) { return gomath.Pow(x[0], x[1]), true }

func evalSqrt(x []float64) (float64, bool) {
	if x[0] < 0 {
		return 0, false
	}
	return gomath.Sqrt(x[0]), true
}

func evalExp(x []float64) (float64, bool) { return gomath.Exp(x[0]), true }

// evalLog is log10(X) with one argument and log base B of X with two.
func evalLog(x []float64) (float64, bool) {
	if len(x) == 1 {
		return positive(gomath.Log10)(x)
	}
	b, v := x[0], x[1]
	if b <= 0 || b == 1 || v <= 0 {
		return 0, false
	}
	return gomath.Log(v) / gomath.Log(b), true
}

// evalMod keeps integers integral; a real operand gives fmod.
func evalMod(args []ext.Value) (ext.Value, error) {
	if ext.AnyNull(args...) {
		return ext.Null(), nil
	}
	a, aok := args[0].AsInt()
	b, bok := args[1].AsInt()
	if aok && bok {
		if b == 0 {
			return ext.Null(), nil
		}
		return ext.Int(a % b), nil
	}
	x, _, err := floats("mod", args)
	if err != nil {
		return ext.Value{}, err
	}
	if x[1] == 0 {
		return ext.Null(), nil
	}
	return finite(gomath.Mod(x[0], x[1])), nil
}

func modResult(args []ext.DataType) ext.DataType {
	if args[0].Is(ext.TypeIDInt) && args[1].Is(ext.TypeIDInt) {
		return ext.TypeInt
	}
	return ext.TypeFloat
}

func evalSign(args []ext.Value) (ext.Value, error) {
	v := args[0]
	if v.IsNull() {
		return ext.Null(), nil
	}
	if n, ok := v.AsInt(); ok {
		switch {
		case n > 0:
			return ext.Int(1), nil
		case n < 0:
			return ext.Int(-1), nil
		}
		return ext.Int(0), nil
	}
	if err := ext.CheckArgKind("sign", 0, v, ext.KindFloat); err != nil {
		return ext.Value{}, err
	}
	f, _ := v.AsFloat()
	switch {
	case f > 0:
		return ext.Float(1), nil
	case f < 0:
		return ext.Float(-1), nil
	}
	return ext.Float(0), nil
}

func signResult(args []ext.DataType) ext.DataType {
	if args[0].IsNull() {
		return ext.TypeNull
	}
	return args[0]
}

func functions() []ext.FunctionExtension {
	return []ext.FunctionExtension{
		realFunc("power", 2, 2, evalPower),
		realFunc("pow", 2, 2, evalPower),
		realFunc("sqrt", 1, 1, evalSqrt),
		realFunc("exp", 1, 1, evalExp),
		realFunc("ln", 1, 1, positive(gomath.Log)),
		realFunc("log", 1, 2, evalLog),
		realFunc("log2", 1, 1, positive(gomath.Log2)),
		realFunc("log10", 1, 1, positive(gomath.Log10)),
		&ext.Func{
			FuncName: "pi",
			Return:   ext.Returns(ext.TypeFloat),
			Exec: func([]ext.Value) (ext.Value, error) {
				return ext.Float(gomath.Pi), nil
			},
		},
		&ext.Func{
			FuncName: "mod",
			MinArgs:  2,
			MaxArgs:  2,
			Return:   numericArgs("mod", modResult),
			Exec:     evalMod,
		},
		&ext.Func{
			FuncName: "sign",
			MinArgs:  1,
			MaxArgs:  1,
			Return:   numericArgs("sign", signResult),
			Exec:     evalSign,
		},
	}
}
