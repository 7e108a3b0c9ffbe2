package document

import (
	"strings"

	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
)

// selector turns the right operand of -> and ->> into a path: text starting
// with $ is a full path, other text an object key, an int an array index.
func selector(v ext.Value) (Path, error) {
	if n, ok := v.AsInt(); ok {
		return Path{{index: int(n)}}, nil
	}
	s, ok := v.AsText()
	if !ok {
		return nil, errors.New(errors.FLINT_TYPE, "document selector must be text or int, got %s", v.Kind())
	}
	if strings.HasPrefix(s, "$") {
		return ParsePath(s)
	}
	return Path{{key: s, isKey: true}}, nil
}

func selectOp(sym string, result ext.DataType, render func(any, bool) ext.Value) []*ext.BinaryOperator {
	exec := func(l, r ext.Value) (ext.Value, error) {
		d, err := From(l)
		if err != nil {
			return ext.Value{}, err
		}
		p, err := selector(r)
		if err != nil {
			return ext.Value{}, err
		}
		n, ok := p.Get(d.root)
		return render(n, ok), nil
	}
	return []*ext.BinaryOperator{
		{Sym: sym, Match: ext.Pair(TypeID, ext.TypeIDText), Result: ext.ResultOf(result), Exec: exec},
		{Sym: sym, Match: ext.Pair(TypeID, ext.TypeIDInt), Result: ext.ResultOf(result), Exec: exec},
	}
}

func docPair(sym string, fn func(a, b any) bool) *ext.BinaryOperator {
	return &ext.BinaryOperator{
		Sym:    sym,
		Match:  ext.Pair(TypeID, TypeID),
		Result: ext.ResultOf(ext.TypeBool),
		Exec: func(l, r ext.Value) (ext.Value, error) {
			a, err := From(l)
			if err != nil {
				return ext.Value{}, err
			}
			b, err := From(r)
			if err != nil {
				return ext.Value{}, err
			}
			return ext.Bool(fn(a.root, b.root)), nil
		},
	}
}

func operators() []ext.OperatorExtension {
	var ops []*ext.BinaryOperator
	ops = append(ops, selectOp("->", DataType, nodeValue)...)
	ops = append(ops, selectOp("->>", ext.TypeText, nodeText)...)
	ops = append(ops, docPair("@>", contains), docPair("=", equalNodes))
	out := make([]ext.OperatorExtension, len(ops))
	for i, op := range ops {
		out[i] = op
	}
	return out
}
