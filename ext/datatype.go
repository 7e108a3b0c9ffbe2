package ext

import "strconv"

// Category groups types for implicit coercion decisions.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryNumeric
	CategoryString
	CategoryBoolean
	CategoryTemporal
	CategoryArray
	CategoryComposite
	CategoryExtension
)

var categoryNames = [...]string{"unknown", "numeric", "string", "boolean", "temporal", "array", "composite", "extension"}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "category(" + strconv.Itoa(int(c)) + ")"
}

// DataType mirrors Value at the type level. An extension DataType caches the
// registered type name; it can only be obtained from a registered
// TypeExtension, so the cache always agrees with the TypeRegistry.
type DataType struct {
	kind Kind
	id   TypeID
	name string
}

var (
	TypeNull  = DataType{kind: KindNull, id: TypeIDNull, name: "null"}
	TypeInt   = DataType{kind: KindInt, id: TypeIDInt, name: "int"}
	TypeFloat = DataType{kind: KindFloat, id: TypeIDFloat, name: "float"}
	TypeText  = DataType{kind: KindText, id: TypeIDText, name: "text"}
	TypeBool  = DataType{kind: KindBool, id: TypeIDBool, name: "bool"}
)

// BuiltinDataType returns the DataType of a built-in kind.
func BuiltinDataType(k Kind) (DataType, bool) {
	switch k {
	case KindNull:
		return TypeNull, true
	case KindInt:
		return TypeInt, true
	case KindFloat:
		return TypeFloat, true
	case KindText:
		return TypeText, true
	case KindBool:
		return TypeBool, true
	}
	return DataType{}, false
}

// DataTypeOf derives the DataType described by te.
func DataTypeOf(te TypeExtension) DataType {
	if id := te.TypeID(); id.IsBuiltin() {
		for _, dt := range []DataType{TypeNull, TypeInt, TypeFloat, TypeText, TypeBool} {
			if dt.id == id {
				return dt
			}
		}
	}
	return DataType{kind: KindExtension, id: te.TypeID(), name: normalizeName(te.Name())}
}

func (d DataType) Kind() Kind        { return d.kind }
func (d DataType) ID() TypeID        { return d.id }
func (d DataType) Name() string      { return d.name }
func (d DataType) String() string    { return d.name }
func (d DataType) IsExtension() bool { return d.kind == KindExtension }
func (d DataType) IsNull() bool      { return d.kind == KindNull }

// IsNumeric reports whether d is int or float.
func (d DataType) IsNumeric() bool { return d.kind == KindInt || d.kind == KindFloat }

// Equal compares identities. Two extension DataTypes are equal when their
// type identities match.
func (d DataType) Equal(o DataType) bool { return d.kind == o.kind && d.id == o.id }

// Is reports whether d is the extension type id.
func (d DataType) Is(id TypeID) bool { return d.id == id }
