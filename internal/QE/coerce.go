package QE

import (
	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
)

// resolution is an operator together with the operand types it was matched
// at. When those differ from the actual operand types the operands are
// converted before execution.
type resolution struct {
	op          ext.OperatorExtension
	left, right ext.DataType
	conv        func(ext.Value, ext.DataType) (ext.Value, error)
}

func (r resolution) convertLeft(v ext.Value) (ext.Value, error)  { return r.convert(v, r.left) }
func (r resolution) convertRight(v ext.Value) (ext.Value, error) { return r.convert(v, r.right) }

func (r resolution) convert(v ext.Value, to ext.DataType) (ext.Value, error) {
	if r.conv == nil {
		return v, nil
	}
	return r.conv(v, to)
}

// resolve finds the operator for op over (left, right). The exact types are
// tried first; then int is widened to float; then a text operand is taken
// as the text form of the other operand's extension type.
func (e *ExprEvaluator) resolve(op string, left, right ext.DataType) (resolution, error) {
	if o, ok := e.cat.Operator(op, left, right); ok {
		return resolution{op: o, left: left, right: right}, nil
	}
	for _, cand := range candidateCoercions(left, right) {
		if o, ok := e.cat.Operator(op, cand[0], cand[1]); ok {
			e.log.Debug("operator resolved by coercion", "op", op, "left", left.Name(), "right", right.Name(),
				"as_left", cand[0].Name(), "as_right", cand[1].Name())
			return resolution{op: o, left: cand[0], right: cand[1], conv: e.Coerce}, nil
		}
	}
	return resolution{}, errors.New(errors.FLINT_NOTFOUND, "operator does not exist: %s %s %s", left, op, right)
}

func candidateCoercions(left, right ext.DataType) [][2]ext.DataType {
	var out [][2]ext.DataType
	switch {
	case left.Is(ext.TypeIDInt) && right.Is(ext.TypeIDFloat):
		out = append(out, [2]ext.DataType{ext.TypeFloat, right})
	case left.Is(ext.TypeIDFloat) && right.Is(ext.TypeIDInt):
		out = append(out, [2]ext.DataType{left, ext.TypeFloat})
	case left.Is(ext.TypeIDInt) && right.Is(ext.TypeIDInt):
		out = append(out, [2]ext.DataType{ext.TypeFloat, ext.TypeFloat})
	}
	if left.IsExtension() && right.Is(ext.TypeIDText) {
		out = append(out, [2]ext.DataType{left, left})
	}
	if left.Is(ext.TypeIDText) && right.IsExtension() {
		out = append(out, [2]ext.DataType{right, right})
	}
	return out
}

// Coerce converts v to the type to. Supported conversions are identity,
// int to float, and text to any type through its ParseText.
func (e *ExprEvaluator) Coerce(v ext.Value, to ext.DataType) (ext.Value, error) {
	if v.IsNull() {
		return v, nil
	}
	from, err := e.cat.TypeOf(v)
	if err != nil {
		return ext.Value{}, err
	}
	switch {
	case from.Equal(to):
		return v, nil
	case from.Is(ext.TypeIDInt) && to.Is(ext.TypeIDFloat):
		n, _ := v.AsInt()
		return ext.Float(float64(n)), nil
	case from.Is(ext.TypeIDText):
		te, ok := e.cat.Type(to.ID())
		if !ok {
			return ext.Value{}, errors.New(errors.FLINT_NOTFOUND, "type %s is not registered", to)
		}
		s, _ := v.AsText()
		out, err := te.ParseText(s)
		if err != nil {
			return ext.Value{}, errors.Wrap(err, errors.FLINT_TYPE, "cannot convert %q to %s", s, to)
		}
		return out, nil
	}
	return ext.Value{}, errors.New(errors.FLINT_TYPE, "cannot convert %s to %s", from, to)
}
