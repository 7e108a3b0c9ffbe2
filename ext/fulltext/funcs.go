package fulltext

import (
	"strings"

	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
)

const defaultSnippetTokens = 15

// Match reports whether text satisfies the match expression q.
func Match(text string, q *Query, tok Tokenizer) bool {
	ix, _ := NewIndex(Structure, tok, ext.TypeText)
	ix.add(ext.TuplePointer{}, text)
	return len(ix.eval(q)) > 0
}

func argText(fn string, pos int, v ext.Value) (string, error) {
	if err := ext.CheckArgKind(fn, pos, v, ext.KindText); err != nil {
		return "", err
	}
	s, _ := v.AsText()
	return s, nil
}

func argTokenizer(fn string, args []ext.Value, pos int) (Tokenizer, error) {
	if len(args) <= pos {
		return Unicode61{}, nil
	}
	name, err := argText(fn, pos, args[pos])
	if err != nil {
		return nil, err
	}
	tok, ok := TokenizerByName(name)
	if !ok {
		return nil, errors.New(errors.FLINT_EXEC, "%s(): unknown tokenizer %q", fn, name)
	}
	return tok, nil
}

func argQuery(fn string, pos int, v ext.Value, tok Tokenizer) (*Query, error) {
	s, err := argText(fn, pos, v)
	if err != nil {
		return nil, err
	}
	q, err := ParseQuery(s, tok)
	if err != nil {
		return nil, errors.Wrap(err, errors.FLINT_EXEC, "%s()", fn)
	}
	return q, nil
}

// textArgs accepts text (or NULL) everywhere except the positions listed
// in ints.
func textArgs(fn string, ret ext.DataType, ints ...int) func([]ext.DataType) (ext.DataType, error) {
	return func(args []ext.DataType) (ext.DataType, error) {
		for i, a := range args {
			want, ok := "text", a.Is(ext.TypeIDText) || a.IsNull()
			for _, p := range ints {
				if p == i {
					want, ok = "integer", a.Is(ext.TypeIDInt) || a.IsNull()
				}
			}
			if err := ext.CheckArgType(fn, i, a, ok, want); err != nil {
				return ext.DataType{}, err
			}
		}
		return ret, nil
	}
}

func markupArgs(fn string, args []ext.Value, from int) (Markup, error) {
	mk := DefaultMarkup()
	fields := []*string{&mk.Open, &mk.Close, &mk.Ellipsis}
	for i, f := range fields {
		pos := from + i
		if pos >= len(args) {
			break
		}
		s, err := argText(fn, pos, args[pos])
		if err != nil {
			return Markup{}, err
		}
		*f = s
	}
	return mk, nil
}

func functions() []ext.FunctionExtension {
	return []ext.FunctionExtension{
		&ext.Func{
			FuncName: "fts_tokenize",
			MinArgs:  1,
			MaxArgs:  2,
			Return:   textArgs("fts_tokenize", ext.TypeText),
			Exec: func(args []ext.Value) (ext.Value, error) {
				if ext.AnyNull(args...) {
					return ext.Null(), nil
				}
				text, err := argText("fts_tokenize", 0, args[0])
				if err != nil {
					return ext.Value{}, err
				}
				tok, err := argTokenizer("fts_tokenize", args, 1)
				if err != nil {
					return ext.Value{}, err
				}
				toks := tok.Tokenize(text)
				terms := make([]string, len(toks))
				for i, t := range toks {
					terms[i] = t.Term
				}
				return ext.Text(strings.Join(terms, " ")), nil
			},
		},
		&ext.Func{
			FuncName: "fts_match",
			MinArgs:  2,
			MaxArgs:  3,
			Return:   textArgs("fts_match", ext.TypeBool),
			Exec: func(args []ext.Value) (ext.Value, error) {
				if ext.AnyNull(args...) {
					return ext.Null(), nil
				}
				text, err := argText("fts_match", 0, args[0])
				if err != nil {
					return ext.Value{}, err
				}
				tok, err := argTokenizer("fts_match", args, 2)
				if err != nil {
					return ext.Value{}, err
				}
				q, err := argQuery("fts_match", 1, args[1], tok)
				if err != nil {
					return ext.Value{}, err
				}
				return ext.Bool(Match(text, q, tok)), nil
			},
		},
		&ext.Func{
			FuncName: "fts_highlight",
			MinArgs:  2,
			MaxArgs:  4,
			Return:   textArgs("fts_highlight", ext.TypeText),
			Exec: func(args []ext.Value) (ext.Value, error) {
				if ext.AnyNull(args...) {
					return ext.Null(), nil
				}
				text, err := argText("fts_highlight", 0, args[0])
				if err != nil {
					return ext.Value{}, err
				}
				q, err := argQuery("fts_highlight", 1, args[1], Unicode61{})
				if err != nil {
					return ext.Value{}, err
				}
				mk, err := markupArgs("fts_highlight", args, 2)
				if err != nil {
					return ext.Value{}, err
				}
				return ext.Text(Highlight(text, q, Unicode61{}, mk)), nil
			},
		},
		&ext.Func{
			FuncName: "fts_snippet",
			MinArgs:  2,
			MaxArgs:  6,
			Return:   textArgs("fts_snippet", ext.TypeText, 5),
			Exec: func(args []ext.Value) (ext.Value, error) {
				if ext.AnyNull(args...) {
					return ext.Null(), nil
				}
				text, err := argText("fts_snippet", 0, args[0])
				if err != nil {
					return ext.Value{}, err
				}
				q, err := argQuery("fts_snippet", 1, args[1], Unicode61{})
				if err != nil {
					return ext.Value{}, err
				}
				mk, err := markupArgs("fts_snippet", args, 2)
				if err != nil {
					return ext.Value{}, err
				}
				n := defaultSnippetTokens
				if len(args) == 6 {
					if err := ext.CheckArgKind("fts_snippet", 5, args[5], ext.KindInt); err != nil {
						return ext.Value{}, err
					}
					v, _ := args[5].AsInt()
					if v < 1 {
						return ext.Value{}, errors.New(errors.FLINT_EXEC, "fts_snippet(): token count must be positive, got %d", v)
					}
					n = int(min(v, 1<<16))
				}
				return ext.Text(Snippet(text, q, Unicode61{}, mk, n)), nil
			},
		},
	}
}

func operators() []ext.OperatorExtension {
	return []ext.OperatorExtension{
		&ext.BinaryOperator{
			Sym:    "@@",
			Match:  ext.Pair(ext.TypeIDText, ext.TypeIDText),
			Result: ext.ResultOf(ext.TypeBool),
			Exec: func(l, r ext.Value) (ext.Value, error) {
				text, _ := l.AsText()
				expr, _ := r.AsText()
				q, err := ParseQuery(expr, Unicode61{})
				if err != nil {
					return ext.Value{}, err
				}
				return ext.Bool(Match(text, q, Unicode61{})), nil
			},
		},
	}
}
