package ext

import (
	"github.com/cyw0ng95/flint/internal/SF/errors"
)

// Registries is the mutable bundle handed to Module.Register during
// bootstrap.
type Registries struct {
	Types     *TypeRegistry
	Operators *OperatorRegistry
	Functions *FunctionRegistry
	Indexes   *IndexBuilderRegistry

	sealed bool
}

// NewRegistries returns four empty registries.
func NewRegistries() *Registries {
	return &Registries{
		Types:     NewTypeRegistry(),
		Operators: NewOperatorRegistry(),
		Functions: NewFunctionRegistry(),
		Indexes:   NewIndexBuilderRegistry(),
	}
}

// Sealed reports whether Seal has run.
func (r *Registries) Sealed() bool { return r.sealed }

// Seal freezes all four registries and returns the read-only Catalog view.
// It verifies the type bijection first; a violation is an internal defect.
func (r *Registries) Seal() (*Catalog, error) {
	if r.sealed {
		return nil, errors.New(errors.FLINT_MISUSE, "registries already sealed")
	}
	if err := r.Types.CheckBijection(); err != nil {
		return nil, err
	}
	r.sealed = true
	r.Types.sealed = true
	r.Operators.sealed = true
	r.Functions.sealed = true
	r.Indexes.sealed = true
	return &Catalog{
		types:     r.Types,
		operators: r.Operators,
		functions: r.Functions,
		indexes:   r.Indexes,
	}, nil
}

// Catalog is the sealed, read-only view of the registries. It is safe for
// concurrent use without locking.
type Catalog struct {
	types     *TypeRegistry
	operators *OperatorRegistry
	functions *FunctionRegistry
	indexes   *IndexBuilderRegistry
}

func (c *Catalog) Type(id TypeID) (TypeExtension, bool)         { return c.types.ByID(id) }
func (c *Catalog) TypeByName(name string) (TypeExtension, bool) { return c.types.ByName(name) }
func (c *Catalog) DataType(id TypeID) (DataType, bool)          { return c.types.DataType(id) }
func (c *Catalog) Types() []TypeExtension                       { return c.types.All() }

// DataTypeByName resolves a type name to its DataType.
func (c *Catalog) DataTypeByName(name string) (DataType, bool) {
	te, ok := c.types.ByName(name)
	if !ok {
		return DataType{}, false
	}
	return DataTypeOf(te), true
}

// TypeOf returns the DataType of v. An extension value carrying a built-in
// identity fails with FLINT_TYPE; one whose identity is not registered fails
// with FLINT_NOTFOUND.
func (c *Catalog) TypeOf(v Value) (DataType, error) {
	if dt, ok := BuiltinDataType(v.Kind()); ok {
		return dt, nil
	}
	if v.TypeID().IsBuiltin() {
		return DataType{}, errors.New(errors.FLINT_TYPE, "extension value claims built-in type identity %d", v.TypeID())
	}
	dt, ok := c.types.DataType(v.TypeID())
	if !ok {
		return DataType{}, errors.New(errors.FLINT_NOTFOUND, "value has unregistered type identity %d", v.TypeID())
	}
	return dt, nil
}

func (c *Catalog) Operator(symbol string, left, right DataType) (OperatorExtension, bool) {
	return c.operators.Find(symbol, left, right)
}

func (c *Catalog) Operators() []OperatorExtension                 { return c.operators.All() }
func (c *Catalog) OperatorSymbols() []string                      { return c.operators.Symbols() }
func (c *Catalog) Function(name string) (FunctionExtension, bool) { return c.functions.Get(name) }
func (c *Catalog) FunctionNames() []string                        { return c.functions.Names() }
func (c *Catalog) Functions() []FunctionExtension                 { return c.functions.All() }

func (c *Catalog) IndexBuilder(name string) (IndexBuilder, bool) { return c.indexes.Lookup(name) }
func (c *Catalog) IndexStructures() []string                     { return c.indexes.Names() }

// BuildIndex manufactures a fresh index of structure name over key.
func (c *Catalog) BuildIndex(name string, key DataType) (IndexExtension, bool, error) {
	return c.indexes.Build(name, key)
}

// Verify re-checks registry invariants.
func (c *Catalog) Verify() error { return c.types.CheckBijection() }

// Counts reports the number of entries per registry.
func (c *Catalog) Counts() map[string]int {
	return map[string]int{
		"types":     c.types.Len(),
		"operators": c.operators.Len(),
		"functions": c.functions.Len(),
		"indexes":   c.indexes.Len(),
	}
}
