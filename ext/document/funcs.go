package document

import (
	"math"

	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
)

// toNode converts a SQL value into a document node. Text is stored as a
// JSON string, never re-parsed; embed a document value to nest JSON.
func toNode(fn string, pos int, v ext.Value) (any, error) {
	switch v.Kind() {
	case ext.KindNull:
		return nil, nil
	case ext.KindInt:
		n, _ := v.AsInt()
		return n, nil
	case ext.KindFloat:
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errors.New(errors.FLINT_EXEC, "%s(): argument %d is not a finite number", fn, pos+1)
		}
		return f, nil
	case ext.KindText:
		s, _ := v.AsText()
		return s, nil
	case ext.KindBool:
		b, _ := v.AsBool()
		return b, nil
	}
	d, err := From(v)
	if err != nil {
		return nil, errors.Wrap(err, errors.FLINT_TYPE, "%s(): argument %d cannot be stored in a document", fn, pos+1)
	}
	return d.root, nil
}

// nodeValue wraps a node as a document value; a missing node is SQL NULL.
func nodeValue(n any, found bool) ext.Value {
	if !found {
		return ext.Null()
	}
	return Document{root: n}.Value()
}

// nodeText is the ->> rendering: strings unquoted, JSON null as SQL NULL,
// everything else as JSON text.
func nodeText(n any, found bool) ext.Value {
	if !found || n == nil {
		return ext.Null()
	}
	if s, ok := n.(string); ok {
		return ext.Text(s)
	}
	return ext.Text(marshal(n))
}

// typeName is the JSON1 type name of a node.
func typeName(n any) string {
	switch x := n.(type) {
	case nil:
		return "null"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64:
		return "integer"
	case float64:
		return "real"
	case string:
		return "text"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return "unknown"
}

// argDoc accepts a document value or JSON text.
func argDoc(fn string, pos int, v ext.Value) (Document, error) {
	if s, ok := v.AsText(); ok {
		d, err := Parse(s)
		if err != nil {
			return Document{}, errors.Wrap(err, errors.FLINT_EXEC, "%s(): argument %d", fn, pos+1)
		}
		return d, nil
	}
	d, err := From(v)
	if err != nil {
		return Document{}, errors.Wrap(err, errors.FLINT_TYPE, "%s(): argument %d must be a document", fn, pos+1)
	}
	return d, nil
}

func argPath(fn string, pos int, v ext.Value) (Path, error) {
	s, ok := v.AsText()
	if !ok {
		return nil, errors.New(errors.FLINT_TYPE, "%s(): argument %d must be a text path, got %s", fn, pos+1, v.Kind())
	}
	return ParsePath(s)
}

func isDocLike(dt ext.DataType) bool {
	return dt.Is(TypeID) || dt.Is(ext.TypeIDText) || dt.IsNull()
}

func isTextLike(dt ext.DataType) bool {
	return dt.Is(ext.TypeIDText) || dt.IsNull()
}

// docThenPaths checks (document, path...) signatures.
func docThenPaths(fn string, ret ext.DataType) func([]ext.DataType) (ext.DataType, error) {
	return func(args []ext.DataType) (ext.DataType, error) {
		for i, a := range args {
			ok := isTextLike(a)
			if i == 0 {
				ok = isDocLike(a)
			}
			if err := ext.CheckArgType(fn, i, a, ok, "document or path"); err != nil {
				return ext.DataType{}, err
			}
		}
		return ret, nil
	}
}

// docPathValues checks (document, path, value, path, value...) signatures.
func docPathValues(fn string) func([]ext.DataType) (ext.DataType, error) {
	return func(args []ext.DataType) (ext.DataType, error) {
		if len(args)%2 == 0 {
			return ext.DataType{}, errors.New(errors.FLINT_ARITY, "%s() takes a document and path/value pairs, got %d arguments", fn, len(args))
		}
		if err := ext.CheckArgType(fn, 0, args[0], isDocLike(args[0]), "document"); err != nil {
			return ext.DataType{}, err
		}
		for i := 1; i < len(args); i += 2 {
			if err := ext.CheckArgType(fn, i, args[i], isTextLike(args[i]), "path"); err != nil {
				return ext.DataType{}, err
			}
		}
		return DataType, nil
	}
}

// withDoc handles the shared prologue: NULL document yields NULL.
func withDoc(fn string, body func(d Document, args []ext.Value) (ext.Value, error)) func([]ext.Value) (ext.Value, error) {
	return func(args []ext.Value) (ext.Value, error) {
		if args[0].IsNull() {
			return ext.Null(), nil
		}
		d, err := argDoc(fn, 0, args[0])
		if err != nil {
			return ext.Value{}, err
		}
		return body(d, args[1:])
	}
}

// optionalPath resolves the node addressed by an optional path argument.
func optionalPath(fn string, d Document, rest []ext.Value) (any, bool, error) {
	if len(rest) == 0 {
		return d.root, true, nil
	}
	if rest[0].IsNull() {
		return nil, false, nil
	}
	p, err := argPath(fn, 1, rest[0])
	if err != nil {
		return nil, false, err
	}
	n, ok := p.Get(d.root)
	return n, ok, nil
}

func modify(fn string, mode setMode) *ext.Func {
	return &ext.Func{
		FuncName: fn,
		MinArgs:  3,
		MaxArgs:  ext.Variadic,
		Return:   docPathValues(fn),
		Exec: withDoc(fn, func(d Document, rest []ext.Value) (ext.Value, error) {
			if len(rest)%2 != 0 {
				return ext.Value{}, errors.New(errors.FLINT_ARITY, "%s() takes a document and path/value pairs", fn)
			}
			root := d.root
			for i := 0; i < len(rest); i += 2 {
				if rest[i].IsNull() {
					return ext.Null(), nil
				}
				p, err := argPath(fn, i+1, rest[i])
				if err != nil {
					return ext.Value{}, err
				}
				val, err := toNode(fn, i+2, rest[i+1])
				if err != nil {
					return ext.Value{}, err
				}
				root = p.set(root, val, mode)
			}
			return Document{root: root}.Value(), nil
		}),
	}
}

func functions() []ext.FunctionExtension {
	return []ext.FunctionExtension{
		&ext.Func{
			FuncName: "doc_parse",
			MinArgs:  1,
			MaxArgs:  1,
			Return:   docThenPaths("doc_parse", DataType),
			Exec: withDoc("doc_parse", func(d Document, _ []ext.Value) (ext.Value, error) {
				return d.Value(), nil
			}),
		},
		&ext.Func{
			FuncName: "doc_valid",
			MinArgs:  1,
			MaxArgs:  1,
			Return:   docThenPaths("doc_valid", ext.TypeBool),
			Exec: func(args []ext.Value) (ext.Value, error) {
				v := args[0]
				if v.IsNull() {
					return ext.Null(), nil
				}
				if s, ok := v.AsText(); ok {
					_, err := Parse(s)
					return ext.Bool(err == nil), nil
				}
				if _, err := From(v); err != nil {
					return ext.Value{}, errors.Wrap(err, errors.FLINT_TYPE, "doc_valid(): argument 1")
				}
				return ext.Bool(true), nil
			},
		},
		&ext.Func{
			FuncName: "doc_extract",
			MinArgs:  2,
			MaxArgs:  ext.Variadic,
			Return:   docThenPaths("doc_extract", DataType),
			Exec: withDoc("doc_extract", func(d Document, paths []ext.Value) (ext.Value, error) {
				found := make([]any, len(paths))
				for i, pv := range paths {
					if pv.IsNull() {
						if len(paths) == 1 {
							return ext.Null(), nil
						}
						continue
					}
					p, err := argPath("doc_extract", i+1, pv)
					if err != nil {
						return ext.Value{}, err
					}
					n, ok := p.Get(d.root)
					if len(paths) == 1 {
						return nodeValue(n, ok), nil
					}
					found[i] = n
				}
				return Document{root: found}.Value(), nil
			}),
		},
		&ext.Func{
			FuncName: "doc_type",
			MinArgs:  1,
			MaxArgs:  2,
			Return:   docThenPaths("doc_type", ext.TypeText),
			Exec: withDoc("doc_type", func(d Document, rest []ext.Value) (ext.Value, error) {
				n, ok, err := optionalPath("doc_type", d, rest)
				if err != nil || !ok {
					return ext.Null(), err
				}
				return ext.Text(typeName(n)), nil
			}),
		},
		&ext.Func{
			FuncName: "doc_length",
			MinArgs:  1,
			MaxArgs:  2,
			Return:   docThenPaths("doc_length", ext.TypeInt),
			Exec: withDoc("doc_length", func(d Document, rest []ext.Value) (ext.Value, error) {
				n, ok, err := optionalPath("doc_length", d, rest)
				if err != nil || !ok {
					return ext.Null(), err
				}
				switch x := n.(type) {
				case []any:
					return ext.Int(int64(len(x))), nil
				case map[string]any:
					return ext.Int(int64(len(x))), nil
				}
				return ext.Int(1), nil
			}),
		},
		modify("doc_set", modeSet),
		modify("doc_insert", modeInsert),
		modify("doc_replace", modeReplace),
		&ext.Func{
			FuncName: "doc_remove",
			MinArgs:  1,
			MaxArgs:  ext.Variadic,
			Return:   docThenPaths("doc_remove", DataType),
			Exec: withDoc("doc_remove", func(d Document, paths []ext.Value) (ext.Value, error) {
				root := d.root
				for i, pv := range paths {
					if pv.IsNull() {
						return ext.Null(), nil
					}
					p, err := argPath("doc_remove", i+1, pv)
					if err != nil {
						return ext.Value{}, err
					}
					if len(p) == 0 {
						return ext.Null(), nil
					}
					root = p.remove(root)
				}
				return Document{root: root}.Value(), nil
			}),
		},
		&ext.Func{
			FuncName: "doc_object",
			MinArgs:  0,
			MaxArgs:  ext.Variadic,
			Return: func(args []ext.DataType) (ext.DataType, error) {
				if len(args)%2 != 0 {
					return ext.DataType{}, errors.New(errors.FLINT_ARITY, "doc_object() takes key/value pairs, got %d arguments", len(args))
				}
				for i := 0; i < len(args); i += 2 {
					if err := ext.CheckArgType("doc_object", i, args[i], args[i].Is(ext.TypeIDText), "text"); err != nil {
						return ext.DataType{}, err
					}
				}
				return DataType, nil
			},
			Exec: func(args []ext.Value) (ext.Value, error) {
				if len(args)%2 != 0 {
					return ext.Value{}, errors.New(errors.FLINT_ARITY, "doc_object() takes key/value pairs, got %d arguments", len(args))
				}
				obj := make(map[string]any, len(args)/2)
				for i := 0; i < len(args); i += 2 {
					if err := ext.CheckArgKind("doc_object", i, args[i], ext.KindText); err != nil {
						return ext.Value{}, err
					}
					k, _ := args[i].AsText()
					n, err := toNode("doc_object", i+1, args[i+1])
					if err != nil {
						return ext.Value{}, err
					}
					obj[k] = n
				}
				return Document{root: obj}.Value(), nil
			},
		},
		&ext.Func{
			FuncName: "doc_array",
			MinArgs:  0,
			MaxArgs:  ext.Variadic,
			Return:   ext.Returns(DataType),
			Exec: func(args []ext.Value) (ext.Value, error) {
				arr := make([]any, len(args))
				for i, a := range args {
					n, err := toNode("doc_array", i, a)
					if err != nil {
						return ext.Value{}, err
					}
					arr[i] = n
				}
				return Document{root: arr}.Value(), nil
			},
		},
		&ext.Func{
			FuncName: "doc_quote",
			MinArgs:  1,
			MaxArgs:  1,
			Return:   ext.Returns(ext.TypeText),
			Exec: func(args []ext.Value) (ext.Value, error) {
				n, err := toNode("doc_quote", 0, args[0])
				if err != nil {
					return ext.Value{}, err
				}
				return ext.Text(marshal(n)), nil
			},
		},
	}
}
