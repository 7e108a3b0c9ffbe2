package ext

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/lib/pq/oid"
)

// builtinType implements TypeExtension for the inline scalar kinds. The
// storage format is fixed: int and float are 8 bytes little-endian, bool is a
// single byte, text is the string's bytes as-is (UTF-8 is not enforced) and
// null is empty.
type builtinType struct {
	dt       DataType
	category Category
	wire     oid.Oid
}

var builtinTypes = []*builtinType{
	{dt: TypeNull, category: CategoryUnknown, wire: oid.T_unknown},
	{dt: TypeInt, category: CategoryNumeric, wire: oid.T_int8},
	{dt: TypeFloat, category: CategoryNumeric, wire: oid.T_float8},
	{dt: TypeText, category: CategoryString, wire: oid.T_text},
	{dt: TypeBool, category: CategoryBoolean, wire: oid.T_bool},
}

// BuiltinTypes returns the TypeExtensions of the built-in scalars.
func BuiltinTypes() []TypeExtension {
	out := make([]TypeExtension, len(builtinTypes))
	for i, t := range builtinTypes {
		out[i] = t
	}
	return out
}

func (t *builtinType) TypeID() TypeID     { return t.dt.ID() }
func (t *builtinType) Name() string       { return t.dt.Name() }
func (t *builtinType) Category() Category { return t.category }
func (t *builtinType) WireType() oid.Oid  { return t.wire }

func (t *builtinType) check(v Value) error {
	if v.Kind() != t.dt.Kind() {
		return errors.New(errors.FLINT_TYPE, "%s codec cannot handle a %s value", t.dt, v.Kind())
	}
	return nil
}

func (t *builtinType) Serialize(v Value) ([]byte, error) {
	if err := t.check(v); err != nil {
		return nil, err
	}
	switch v.Kind() {
	case KindNull:
		return []byte{}, nil
	case KindInt, KindFloat:
		return binary.LittleEndian.AppendUint64(make([]byte, 0, 8), v.bits), nil
	case KindBool:
		return []byte{byte(v.bits)}, nil
	default:
		return []byte(v.str), nil
	}
}

func (t *builtinType) Deserialize(b []byte) (Value, error) {
	switch t.dt.Kind() {
	case KindNull:
		if len(b) != 0 {
			return Value{}, errors.New(errors.FLINT_DECODE, "null: expected 0 bytes, got %d", len(b))
		}
		return Null(), nil
	case KindInt, KindFloat:
		if len(b) != 8 {
			return Value{}, errors.New(errors.FLINT_DECODE, "%s: expected 8 bytes, got %d", t.dt, len(b))
		}
		v := Value{kind: t.dt.Kind(), typ: t.dt.ID(), bits: binary.LittleEndian.Uint64(b)}
		return v, nil
	case KindBool:
		if len(b) != 1 || b[0] > 1 {
			return Value{}, errors.New(errors.FLINT_DECODE, "bool: expected one byte 0 or 1, got % x", b)
		}
		return Bool(b[0] == 1), nil
	default:
		return Text(string(b)), nil
	}
}

func (t *builtinType) FormatText(v Value) (string, error) {
	if err := t.check(v); err != nil {
		return "", err
	}
	switch v.Kind() {
	case KindNull:
		return "NULL", nil
	case KindInt:
		return strconv.FormatInt(int64(v.bits), 10), nil
	case KindFloat:
		return strconv.FormatFloat(math.Float64frombits(v.bits), 'g', -1, 64), nil
	case KindBool:
		if v.bits != 0 {
			return "true", nil
		}
		return "false", nil
	default:
		return v.str, nil
	}
}

func (t *builtinType) ParseText(s string) (Value, error) {
	switch t.dt.Kind() {
	case KindNull:
		if !strings.EqualFold(strings.TrimSpace(s), "null") {
			return Value{}, errors.New(errors.FLINT_DECODE, "null: cannot parse %q", s)
		}
		return Null(), nil
	case KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return Value{}, errors.Wrap(err, errors.FLINT_DECODE, "int: cannot parse %q", s)
		}
		return Int(n), nil
	case KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Value{}, errors.Wrap(err, errors.FLINT_DECODE, "float: cannot parse %q", s)
		}
		return Float(f), nil
	case KindBool:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "t", "true", "1", "yes", "on":
			return Bool(true), nil
		case "f", "false", "0", "no", "off":
			return Bool(false), nil
		}
		return Value{}, errors.New(errors.FLINT_DECODE, "bool: cannot parse %q", s)
	default:
		return Text(s), nil
	}
}
