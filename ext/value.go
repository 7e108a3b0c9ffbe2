package ext

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/cyw0ng95/flint/internal/SF/errors"
)

// Kind is the variant tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
	KindBool
	KindExtension
)

var kindNames = [...]string{"null", "int", "float", "text", "bool", "extension"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// TypeID is the stable numeric identity of a data type. It is persisted with
// serialized values and must never be reassigned.
type TypeID uint32

// Built-in identities occupy [0, FirstExtensionTypeID).
const (
	TypeIDNull  TypeID = 0
	TypeIDInt   TypeID = 1
	TypeIDFloat TypeID = 2
	TypeIDText  TypeID = 3
	TypeIDBool  TypeID = 4

	FirstExtensionTypeID TypeID = 16384
)

// IsBuiltin reports whether id lies in the reserved built-in range.
func (id TypeID) IsBuiltin() bool { return id < FirstExtensionTypeID }

// Value is the uniform value container. Built-in scalars are stored inline;
// extension values hold a type identity and an immutable, shared payload
// that is only reachable through a checked downcast (As).
//
// The zero Value is NULL.
type Value struct {
	kind    Kind
	typ     TypeID
	bits    uint64
	str     string
	payload any
}

// Null returns the NULL value.
func Null() Value { return Value{} }

// Int returns an integer value.
func Int(n int64) Value { return Value{kind: KindInt, typ: TypeIDInt, bits: uint64(n)} }

// Float returns a float value.
func Float(f float64) Value {
	return Value{kind: KindFloat, typ: TypeIDFloat, bits: math.Float64bits(f)}
}

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, typ: TypeIDText, str: s} }

// Bool returns a boolean value.
func Bool(b bool) Value {
	v := Value{kind: KindBool, typ: TypeIDBool}
	if b {
		v.bits = 1
	}
	return v
}

// Extension wraps payload as a value of extension type id. The payload must
// not be mutated after this call.
func Extension(id TypeID, payload any) Value {
	return Value{kind: KindExtension, typ: id, payload: payload}
}

func (v Value) Kind() Kind        { return v.kind }
func (v Value) TypeID() TypeID    { return v.typ }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsExtension() bool { return v.kind == KindExtension }

// IsNumeric reports whether v is an int or a float.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return int64(v.bits), true
}

func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return math.Float64frombits(v.bits), true
}

func (v Value) AsText() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.str, true
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.bits != 0, true
}

// Float64 widens an int or float to float64.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(int64(v.bits)), true
	case KindFloat:
		return math.Float64frombits(v.bits), true
	}
	return 0, false
}

// Payload returns the raw extension handle, or nil for built-in values.
// Prefer As, which checks the declared identity.
func (v Value) Payload() any { return v.payload }

// As is the checked downcast of an extension payload. It fails with a
// FLINT_TYPE error when v is not of extension type id or when the payload
// does not have the concrete shape T.
func As[T any](v Value, id TypeID) (T, error) {
	var zero T
	if v.kind != KindExtension {
		return zero, errors.New(errors.FLINT_TYPE, "expected value of type %d, got %s", id, v.kind)
	}
	if v.typ != id {
		return zero, errors.New(errors.FLINT_TYPE, "expected value of type %d, got type %d", id, v.typ)
	}
	p, ok := v.payload.(T)
	if !ok {
		return zero, errors.New(errors.FLINT_TYPE, "payload of type %d has shape %T, want %T", id, v.payload, zero)
	}
	return p, nil
}

// Equal reports observable equality: same kind, same identity, equal content.
// Float comparison is bitwise so NaN equals itself.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.typ != o.typ {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindInt, KindFloat, KindBool:
		return v.bits == o.bits
	case KindText:
		return v.str == o.str
	default:
		if eq, ok := v.payload.(interface{ Equal(any) bool }); ok {
			return eq.Equal(o.payload)
		}
		return reflect.DeepEqual(v.payload, o.payload)
	}
}

// String renders v for debugging. Extension payloads use their fmt form.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return strconv.FormatInt(int64(v.bits), 10)
	case KindFloat:
		return strconv.FormatFloat(math.Float64frombits(v.bits), 'g', -1, 64)
	case KindText:
		return strconv.Quote(v.str)
	case KindBool:
		return strconv.FormatBool(v.bits != 0)
	default:
		return fmt.Sprintf("ext(%d:%v)", v.typ, v.payload)
	}
}
