// Package document implements the document extension: a JSON document type
// stored as msgpack, JSON1-style path functions, and extraction and
// containment operators.
//
// A document tree is built from nil, bool, int64, float64, string, []any
// and map[string]any. Trees are never mutated after construction; every
// modifying function copies the path it touches.
package document

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/lib/pq/oid"
	"github.com/vmihailenco/msgpack/v5"
)

// TypeID is the stable identity of the document type.
const TypeID = ext.FirstExtensionTypeID + 1

const maxDepth = 512

// Document is the payload of a document value.
type Document struct {
	root any
}

// Root returns the underlying tree. Callers must not modify it.
func (d Document) Root() any { return d.root }

// Equal reports structural equality. Numbers compare by value, so 1 and
// 1.0 are equal.
func (d Document) Equal(o any) bool {
	od, ok := o.(Document)
	return ok && equalNodes(d.root, od.root)
}

// String renders canonical JSON with sorted object keys.
func (d Document) String() string {
	return marshal(d.root)
}

func marshal(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "null"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Value wraps d in an ext.Value.
func (d Document) Value() ext.Value { return ext.Extension(TypeID, d) }

// Parse reads JSON text. Integers that fit int64 stay integers.
func Parse(s string) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Document{}, errors.Wrap(err, errors.FLINT_DECODE, "malformed JSON")
	}
	if dec.More() {
		return Document{}, errors.New(errors.FLINT_DECODE, "malformed JSON: trailing data")
	}
	root, err := normalize(raw, 0)
	if err != nil {
		return Document{}, err
	}
	return Document{root: root}, nil
}

// From unwraps a document value.
func From(v ext.Value) (Document, error) {
	return ext.As[Document](v, TypeID)
}

// normalize converts decoder output into the canonical tree shape.
func normalize(v any, depth int) (any, error) {
	if depth > maxDepth {
		return nil, errors.New(errors.FLINT_DECODE, "document nested deeper than %d", maxDepth)
	}
	switch x := v.(type) {
	case nil, bool, string, int64:
		return x, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, errors.New(errors.FLINT_DECODE, "document numbers must be finite")
		}
		return x, nil
	case float32:
		return normalize(float64(x), depth)
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return float64(x), nil
		}
		return int64(x), nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, errors.Wrap(err, errors.FLINT_DECODE, "number %s", x)
		}
		return normalize(f, depth)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			n, err := normalize(e, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			n, err := normalize(e, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	}
	return nil, errors.New(errors.FLINT_DECODE, "unsupported document node %T", v)
}

func equalNodes(a, b any) bool {
	switch x := a.(type) {
	case int64, float64:
		fa, ok1 := number(a)
		fb, ok2 := number(b)
		if !ok1 || !ok2 {
			return false
		}
		if ia, ok := a.(int64); ok {
			if ib, ok := b.(int64); ok {
				return ia == ib
			}
		}
		return fa == fb
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equalNodes(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !equalNodes(xv, yv) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// contains is jsonb containment: objects contain a subset of their keys,
// arrays contain any subset of their elements, scalars contain equals.
func contains(a, b any) bool {
	switch x := a.(type) {
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok {
			return false
		}
		for k, yv := range y {
			xv, ok := x[k]
			if !ok || !contains(xv, yv) {
				return false
			}
		}
		return true
	case []any:
		y, ok := b.([]any)
		if !ok {
			// a top-level array contains a bare scalar element
			for _, e := range x {
				if !isContainer(e) && equalNodes(e, b) {
					return true
				}
			}
			return false
		}
	outer:
		for _, yv := range y {
			for _, xv := range x {
				if contains(xv, yv) {
					continue outer
				}
			}
			return false
		}
		return true
	default:
		return equalNodes(a, b)
	}
}

func isContainer(v any) bool {
	switch v.(type) {
	case []any, map[string]any:
		return true
	}
	return false
}

type documentType struct{}

// Type returns the document TypeExtension.
func Type() ext.TypeExtension { return documentType{} }

// DataType is the resolved descriptor of the document type.
var DataType = ext.DataTypeOf(documentType{})

func (documentType) TypeID() ext.TypeID     { return TypeID }
func (documentType) Name() string           { return "document" }
func (documentType) Category() ext.Category { return ext.CategoryComposite }
func (documentType) WireType() oid.Oid      { return oid.Oid(TypeID) }

// Serialize encodes the tree as msgpack with sorted map keys, so a tree
// always produces the same bytes.
func (documentType) Serialize(v ext.Value) ([]byte, error) {
	d, err := From(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(d.root); err != nil {
		return nil, errors.Wrap(err, errors.FLINT_ERROR, "encode document")
	}
	return buf.Bytes(), nil
}

func (documentType) Deserialize(b []byte) (ext.Value, error) {
	if len(b) == 0 {
		return ext.Value{}, errors.New(errors.FLINT_DECODE, "document: empty input")
	}
	r := bytes.NewReader(b)
	dec := msgpack.NewDecoder(r)
	dec.UseLooseInterfaceDecoding(true)
	raw, err := dec.DecodeInterface()
	if err != nil {
		return ext.Value{}, errors.Wrap(err, errors.FLINT_DECODE, "document")
	}
	if r.Len() != 0 {
		return ext.Value{}, errors.New(errors.FLINT_DECODE, "document: %d trailing bytes", r.Len())
	}
	root, err := normalize(raw, 0)
	if err != nil {
		return ext.Value{}, errors.Wrap(err, errors.FLINT_DECODE, "document")
	}
	return Document{root: root}.Value(), nil
}

func (documentType) FormatText(v ext.Value) (string, error) {
	d, err := From(v)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

func (documentType) ParseText(s string) (ext.Value, error) {
	d, err := Parse(s)
	if err != nil {
		return ext.Value{}, err
	}
	return d.Value(), nil
}
