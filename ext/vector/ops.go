package vector

import (
	"math"

	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/cyw0ng95/flint/internal/SF/opt"
)

func checkDims(op string, a, b Vector) error {
	if len(a) != len(b) {
		return errors.New(errors.FLINT_EXEC, "%s: different vector dimensions %d and %d", op, len(a), len(b))
	}
	return nil
}

// L2 is the Euclidean distance.
func L2(a, b Vector) (float64, error) {
	if err := checkDims("l2_distance", a, b); err != nil {
		return 0, err
	}
	return math.Sqrt(opt.SquaredL2Float32(a, b)), nil
}

// Cosine is 1 - cos(a, b). It is undefined when either vector is zero.
func Cosine(a, b Vector) (float64, error) {
	if err := checkDims("cosine_distance", a, b); err != nil {
		return 0, err
	}
	na, nb := opt.SumSquaresFloat32(a), opt.SumSquaresFloat32(b)
	if na == 0 || nb == 0 {
		return 0, errors.New(errors.FLINT_EXEC, "cosine_distance: zero vector")
	}
	sim := opt.DotFloat32(a, b) / math.Sqrt(na*nb)
	// rounding can push |sim| slightly past 1
	sim = math.Max(-1, math.Min(1, sim))
	return 1 - sim, nil
}

// Dot is the inner product.
func Dot(a, b Vector) (float64, error) {
	if err := checkDims("inner_product", a, b); err != nil {
		return 0, err
	}
	return opt.DotFloat32(a, b), nil
}

// Norm is the Euclidean length.
func Norm(a Vector) float64 { return math.Sqrt(opt.SumSquaresFloat32(a)) }

func elementwise(op string, kernel func(dst, a, b []float32), a, b Vector) (ext.Value, error) {
	if err := checkDims(op, a, b); err != nil {
		return ext.Value{}, err
	}
	out := make(Vector, len(a))
	kernel(out, a, b)
	if err := validate(out); err != nil {
		return ext.Value{}, errors.Wrap(err, errors.FLINT_EXEC, "vector %s overflowed", op)
	}
	return ext.Extension(TypeID, out), nil
}

func vectorOp(sym string, result ext.DataType, fn func(a, b Vector) (ext.Value, error)) *ext.BinaryOperator {
	return &ext.BinaryOperator{
		Sym:    sym,
		Match:  ext.Pair(TypeID, TypeID),
		Result: ext.ResultOf(result),
		Exec: func(l, r ext.Value) (ext.Value, error) {
			a, err := From(l)
			if err != nil {
				return ext.Value{}, err
			}
			b, err := From(r)
			if err != nil {
				return ext.Value{}, err
			}
			return fn(a, b)
		},
	}
}

func distanceOp(sym string, dist func(a, b Vector) (float64, error)) *ext.BinaryOperator {
	return vectorOp(sym, ext.TypeFloat, func(a, b Vector) (ext.Value, error) {
		d, err := dist(a, b)
		if err != nil {
			return ext.Value{}, err
		}
		return ext.Float(d), nil
	})
}

func operators() []ext.OperatorExtension {
	ops := []*ext.BinaryOperator{
		distanceOp("<->", L2),
		distanceOp("<=>", Cosine),
		distanceOp("<#>", func(a, b Vector) (float64, error) {
			d, err := Dot(a, b)
			return -d, err
		}),
		vectorOp("+", DataType, func(a, b Vector) (ext.Value, error) {
			return elementwise("+", opt.AddFloat32, a, b)
		}),
		vectorOp("-", DataType, func(a, b Vector) (ext.Value, error) {
			return elementwise("-", opt.SubFloat32, a, b)
		}),
		vectorOp("=", ext.TypeBool, func(a, b Vector) (ext.Value, error) {
			return ext.Bool(a.Equal(b)), nil
		}),
	}
	out := make([]ext.OperatorExtension, len(ops))
	for i, op := range ops {
		out[i] = op
	}
	return out
}

// vectorArgs accepts vectors and text literals of vectors.
func vectorArgs(fn string, ret ext.DataType) func([]ext.DataType) (ext.DataType, error) {
	return func(args []ext.DataType) (ext.DataType, error) {
		for i, a := range args {
			ok := a.Is(TypeID) || a.Is(ext.TypeIDText) || a.IsNull()
			if err := ext.CheckArgType(fn, i, a, ok, "vector"); err != nil {
				return ext.DataType{}, err
			}
		}
		return ret, nil
	}
}

func argVector(fn string, pos int, v ext.Value) (Vector, error) {
	if s, ok := v.AsText(); ok {
		vec, err := Parse(s)
		if err != nil {
			return nil, errors.Wrap(err, errors.FLINT_TYPE, "%s(): argument %d", fn, pos+1)
		}
		return vec, nil
	}
	vec, err := From(v)
	if err != nil {
		return nil, errors.Wrap(err, errors.FLINT_TYPE, "%s(): argument %d", fn, pos+1)
	}
	return vec, nil
}

func unary(name string, ret ext.DataType, fn func(Vector) (ext.Value, error)) *ext.Func {
	return &ext.Func{
		FuncName: name,
		MinArgs:  1,
		MaxArgs:  1,
		Return:   vectorArgs(name, ret),
		Exec: func(args []ext.Value) (ext.Value, error) {
			if args[0].IsNull() {
				return ext.Null(), nil
			}
			v, err := argVector(name, 0, args[0])
			if err != nil {
				return ext.Value{}, err
			}
			return fn(v)
		},
	}
}

func binaryFunc(name string, dist func(a, b Vector) (float64, error)) *ext.Func {
	return &ext.Func{
		FuncName: name,
		MinArgs:  2,
		MaxArgs:  2,
		Return:   vectorArgs(name, ext.TypeFloat),
		Exec: func(args []ext.Value) (ext.Value, error) {
			if ext.AnyNull(args...) {
				return ext.Null(), nil
			}
			a, err := argVector(name, 0, args[0])
			if err != nil {
				return ext.Value{}, err
			}
			b, err := argVector(name, 1, args[1])
			if err != nil {
				return ext.Value{}, err
			}
			d, err := dist(a, b)
			if err != nil {
				return ext.Value{}, err
			}
			return ext.Float(d), nil
		},
	}
}

func functions() []ext.FunctionExtension {
	return []ext.FunctionExtension{
		unary("vector_dims", ext.TypeInt, func(v Vector) (ext.Value, error) {
			return ext.Int(int64(len(v))), nil
		}),
		unary("vector_norm", ext.TypeFloat, func(v Vector) (ext.Value, error) {
			return ext.Float(Norm(v)), nil
		}),
		unary("l2_normalize", DataType, func(v Vector) (ext.Value, error) {
			n := Norm(v)
			if n == 0 {
				return ext.Extension(TypeID, v), nil
			}
			out := make(Vector, len(v))
			opt.ScaleFloat32(out, v, float32(1/n))
			return ext.Extension(TypeID, out), nil
		}),
		binaryFunc("l2_distance", L2),
		binaryFunc("cosine_distance", Cosine),
		binaryFunc("inner_product", Dot),
	}
}
