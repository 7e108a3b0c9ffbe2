package ext

import (
	"sort"
	"strings"

	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/cyw0ng95/flint/internal/SF/util"
)

// Registries are single-threaded during bootstrap and read-only after
// Seal, so none of them lock. Every Register call after sealing fails with
// FLINT_MISUSE; every duplicate key fails with FLINT_CONFLICT and leaves the
// registry unchanged.

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func errSealed(what string) error {
	return errors.New(errors.FLINT_MISUSE, "%s registry is sealed", what)
}

// ---- TypeRegistry ------------------------------------------------------

// TypeRegistry maps type identities and names to TypeExtensions. The two
// indices are kept in bijection.
type TypeRegistry struct {
	sealed bool
	byID   map[TypeID]TypeExtension
	byName map[string]TypeExtension
	order  []TypeExtension
}

func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		byID:   make(map[TypeID]TypeExtension),
		byName: make(map[string]TypeExtension),
	}
}

// Register adds an extension type. Identities below FirstExtensionTypeID are
// reserved for built-ins.
func (r *TypeRegistry) Register(te TypeExtension) error {
	if !util.IsNil(te) && te.TypeID().IsBuiltin() {
		return errors.New(errors.FLINT_CONFLICT,
			"type %q: identity %d is in the reserved built-in range (< %d)", te.Name(), te.TypeID(), FirstExtensionTypeID)
	}
	return r.register(te)
}

func (r *TypeRegistry) register(te TypeExtension) error {
	if r.sealed {
		return errSealed("type")
	}
	if util.IsNil(te) {
		return errors.New(errors.FLINT_MISUSE, "nil type extension")
	}
	name := normalizeName(te.Name())
	if name == "" {
		return errors.New(errors.FLINT_MISUSE, "type %d has an empty name", te.TypeID())
	}
	if prev, ok := r.byID[te.TypeID()]; ok {
		return errors.New(errors.FLINT_CONFLICT, "type identity %d already registered as %q", te.TypeID(), prev.Name())
	}
	if prev, ok := r.byName[name]; ok {
		return errors.New(errors.FLINT_CONFLICT, "type name %q already registered with identity %d", name, prev.TypeID())
	}
	r.byID[te.TypeID()] = te
	r.byName[name] = te
	r.order = append(r.order, te)
	return nil
}

// ByID returns the type registered under id.
func (r *TypeRegistry) ByID(id TypeID) (TypeExtension, bool) {
	te, ok := r.byID[id]
	return te, ok
}

// ByName returns the type registered under name (case-insensitive).
func (r *TypeRegistry) ByName(name string) (TypeExtension, bool) {
	te, ok := r.byName[normalizeName(name)]
	return te, ok
}

// DataType returns the DataType of a registered identity.
func (r *TypeRegistry) DataType(id TypeID) (DataType, bool) {
	te, ok := r.byID[id]
	if !ok {
		return DataType{}, false
	}
	return DataTypeOf(te), true
}

// All returns the registered types in registration order.
func (r *TypeRegistry) All() []TypeExtension {
	return append([]TypeExtension(nil), r.order...)
}

func (r *TypeRegistry) Len() int { return len(r.order) }

// CheckBijection verifies that id -> name -> id round-trips for every entry.
func (r *TypeRegistry) CheckBijection() error {
	if err := util.Check(len(r.byID) == len(r.byName) && len(r.byID) == len(r.order),
		"type indices disagree: %d ids, %d names, %d entries", len(r.byID), len(r.byName), len(r.order)); err != nil {
		return err
	}
	for id, te := range r.byID {
		back, ok := r.byName[normalizeName(te.Name())]
		if err := util.Check(ok && back.TypeID() == id,
			"type %d (%q) does not map back to itself by name", id, te.Name()); err != nil {
			return err
		}
	}
	return nil
}

// ---- OperatorRegistry --------------------------------------------------

// OperatorRegistry is an ordered list of operator implementations. Find
// returns the first match, so earlier registrations take priority.
type OperatorRegistry struct {
	sealed bool
	ops    []OperatorExtension
}

func NewOperatorRegistry() *OperatorRegistry { return &OperatorRegistry{} }

func (r *OperatorRegistry) Register(op OperatorExtension) error {
	if r.sealed {
		return errSealed("operator")
	}
	if util.IsNil(op) {
		return errors.New(errors.FLINT_MISUSE, "nil operator extension")
	}
	if strings.TrimSpace(op.Symbol()) == "" {
		return errors.New(errors.FLINT_MISUSE, "operator with empty symbol")
	}
	r.ops = append(r.ops, op)
	return nil
}

// Find returns the first operator registered under symbol that accepts the
// operand types.
func (r *OperatorRegistry) Find(symbol string, left, right DataType) (OperatorExtension, bool) {
	for _, op := range r.ops {
		if op.Symbol() == symbol && op.Accepts(left, right) {
			return op, true
		}
	}
	return nil, false
}

// Symbols returns the distinct registered symbols, sorted.
func (r *OperatorRegistry) Symbols() []string {
	seen := make(map[string]struct{}, len(r.ops))
	var out []string
	for _, op := range r.ops {
		if _, ok := seen[op.Symbol()]; !ok {
			seen[op.Symbol()] = struct{}{}
			out = append(out, op.Symbol())
		}
	}
	sort.Strings(out)
	return out
}

// All returns the operators in priority order.
func (r *OperatorRegistry) All() []OperatorExtension {
	return append([]OperatorExtension(nil), r.ops...)
}

func (r *OperatorRegistry) Len() int { return len(r.ops) }

// ---- FunctionRegistry --------------------------------------------------

// FunctionRegistry maps case-insensitive names to scalar functions.
type FunctionRegistry struct {
	sealed bool
	byName map[string]FunctionExtension
	order  []string
}

func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{byName: make(map[string]FunctionExtension)}
}

func (r *FunctionRegistry) Register(fn FunctionExtension) error {
	if r.sealed {
		return errSealed("function")
	}
	if util.IsNil(fn) {
		return errors.New(errors.FLINT_MISUSE, "nil function extension")
	}
	name := normalizeName(fn.Name())
	if name == "" {
		return errors.New(errors.FLINT_MISUSE, "function with empty name")
	}
	if _, ok := r.byName[name]; ok {
		return errors.New(errors.FLINT_CONFLICT, "function %q already registered", name)
	}
	r.byName[name] = fn
	r.order = append(r.order, name)
	return nil
}

// Get returns the function registered under name.
func (r *FunctionRegistry) Get(name string) (FunctionExtension, bool) {
	fn, ok := r.byName[normalizeName(name)]
	return fn, ok
}

// Names returns the registered names, sorted.
func (r *FunctionRegistry) Names() []string {
	out := append([]string(nil), r.order...)
	sort.Strings(out)
	return out
}

// All returns the functions in registration order.
func (r *FunctionRegistry) All() []FunctionExtension {
	out := make([]FunctionExtension, len(r.order))
	for i, name := range r.order {
		out[i] = r.byName[name]
	}
	return out
}

func (r *FunctionRegistry) Len() int { return len(r.order) }

// ---- IndexBuilderRegistry ----------------------------------------------

// IndexBuilderRegistry maps index structure names to builders.
type IndexBuilderRegistry struct {
	sealed   bool
	builders map[string]IndexBuilder
	order    []string
}

func NewIndexBuilderRegistry() *IndexBuilderRegistry {
	return &IndexBuilderRegistry{builders: make(map[string]IndexBuilder)}
}

func (r *IndexBuilderRegistry) Register(name string, b IndexBuilder) error {
	if r.sealed {
		return errSealed("index builder")
	}
	if util.IsNil(b) {
		return errors.New(errors.FLINT_MISUSE, "nil index builder %q", name)
	}
	name = normalizeName(name)
	if name == "" {
		return errors.New(errors.FLINT_MISUSE, "index builder with empty name")
	}
	if _, ok := r.builders[name]; ok {
		return errors.New(errors.FLINT_CONFLICT, "index structure %q already registered", name)
	}
	r.builders[name] = b
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the builder registered under name.
func (r *IndexBuilderRegistry) Lookup(name string) (IndexBuilder, bool) {
	b, ok := r.builders[normalizeName(name)]
	return b, ok
}

// Build manufactures a fresh, empty index. ok is false when name is
// unknown; err reports a builder that rejects the key type.
func (r *IndexBuilderRegistry) Build(name string, key DataType) (idx IndexExtension, ok bool, err error) {
	b, ok := r.Lookup(name)
	if !ok {
		return nil, false, nil
	}
	idx, err = b.Build(key)
	if err != nil {
		return nil, true, err
	}
	return idx, true, nil
}

// Names returns the registered structure names, sorted.
func (r *IndexBuilderRegistry) Names() []string {
	out := append([]string(nil), r.order...)
	sort.Strings(out)
	return out
}

func (r *IndexBuilderRegistry) Len() int { return len(r.order) }
