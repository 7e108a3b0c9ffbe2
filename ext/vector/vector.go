// Package vector implements the vector extension: a fixed-dimension float32
// vector type, distance operators and functions, and an HNSW index for
// approximate nearest-neighbour search.
package vector

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/lib/pq/oid"
)

// TypeID is the stable identity of the vector type.
const TypeID = ext.FirstExtensionTypeID

// MaxDims bounds the dimension count so it fits the storage header.
const MaxDims = math.MaxUint16

// Vector is the payload of a vector value. Values are immutable once
// wrapped; operations always allocate a new Vector.
type Vector []float32

// Equal reports element-wise equality. It lets ext.Value.Equal compare
// vector payloads without reflection.
func (v Vector) Equal(o any) bool {
	w, ok := o.(Vector)
	if !ok || len(v) != len(w) {
		return false
	}
	for i := range v {
		if v[i] != w[i] {
			return false
		}
	}
	return true
}

func (v Vector) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

// New validates components and wraps them in a Value.
func New(components ...float32) (ext.Value, error) {
	if err := validate(components); err != nil {
		return ext.Value{}, err
	}
	return ext.Extension(TypeID, Vector(append([]float32(nil), components...))), nil
}

// MustNew is New for literals known to be valid.
func MustNew(components ...float32) ext.Value {
	v, err := New(components...)
	if err != nil {
		panic(err)
	}
	return v
}

func validate(c []float32) error {
	if len(c) == 0 || len(c) > MaxDims {
		return errors.New(errors.FLINT_TYPE, "vector must have 1 to %d dimensions, got %d", MaxDims, len(c))
	}
	for i, f := range c {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return errors.New(errors.FLINT_TYPE, "vector component %d is not finite", i)
		}
	}
	return nil
}

// From unwraps a vector value.
func From(v ext.Value) (Vector, error) {
	return ext.As[Vector](v, TypeID)
}

// Parse reads the text form "[1,2.5,-3]".
func Parse(s string) (Vector, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, errors.New(errors.FLINT_DECODE, "vector literal must be bracketed: %q", s)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return nil, errors.New(errors.FLINT_DECODE, "empty vector literal")
	}
	parts := strings.Split(body, ",")
	out := make(Vector, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, errors.Wrap(err, errors.FLINT_DECODE, "vector component %d", i)
		}
		out[i] = float32(f)
	}
	if err := validate(out); err != nil {
		return nil, errors.Wrap(err, errors.FLINT_DECODE, "vector literal")
	}
	return out, nil
}

type vectorType struct{}

// Type returns the vector TypeExtension.
func Type() ext.TypeExtension { return vectorType{} }

// DataType is the resolved descriptor of the vector type.
var DataType = ext.DataTypeOf(vectorType{})

func (vectorType) TypeID() ext.TypeID     { return TypeID }
func (vectorType) Name() string           { return "vector" }
func (vectorType) Category() ext.Category { return ext.CategoryArray }
func (vectorType) WireType() oid.Oid      { return oid.Oid(TypeID) }

// Serialize layout: [dims u16 LE] then dims float32 LE components.
func (vectorType) Serialize(v ext.Value) ([]byte, error) {
	vec, err := From(v)
	if err != nil {
		return nil, err
	}
	return appendVector(nil, vec), nil
}

func appendVector(b []byte, vec Vector) []byte {
	b = binary.LittleEndian.AppendUint16(b, uint16(len(vec)))
	for _, f := range vec {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	return b
}

func (vectorType) Deserialize(b []byte) (ext.Value, error) {
	vec, n, err := decodeVector(b)
	if err != nil {
		return ext.Value{}, err
	}
	if n != len(b) {
		return ext.Value{}, errors.New(errors.FLINT_DECODE, "vector: %d trailing bytes", len(b)-n)
	}
	return ext.Extension(TypeID, vec), nil
}

// decodeVector reads one stored vector from the front of b.
func decodeVector(b []byte) (Vector, int, error) {
	if len(b) < 2 {
		return nil, 0, errors.New(errors.FLINT_DECODE, "vector: need 2 header bytes, got %d", len(b))
	}
	dims := int(binary.LittleEndian.Uint16(b))
	if dims == 0 {
		return nil, 0, errors.New(errors.FLINT_DECODE, "vector: zero dimensions")
	}
	n := 2 + 4*dims
	if len(b) < n {
		return nil, 0, errors.New(errors.FLINT_DECODE, "vector: %d dimensions need %d bytes, got %d", dims, n, len(b))
	}
	vec := make(Vector, dims)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[2+4*i:]))
	}
	if err := validate(vec); err != nil {
		return nil, 0, errors.Wrap(err, errors.FLINT_DECODE, "vector")
	}
	return vec, n, nil
}

func (vectorType) FormatText(v ext.Value) (string, error) {
	vec, err := From(v)
	if err != nil {
		return "", err
	}
	return vec.String(), nil
}

func (vectorType) ParseText(s string) (ext.Value, error) {
	vec, err := Parse(s)
	if err != nil {
		return ext.Value{}, err
	}
	return ext.Extension(TypeID, vec), nil
}
