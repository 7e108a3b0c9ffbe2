// Package ext is the extensibility core: the uniform Value model, the
// capability contracts extension modules implement, and the four registries
// (types, operators, functions, index builders) an engine instance builds
// once and seals.
//
// Extension modules are selected at build time and register through a single
// entry point:
//
//	func (m *module) Register(r *ext.Registries) error {
//		if err := r.Types.Register(vectorType{}); err != nil {
//			return err
//		}
//		return r.Indexes.Register("hnsw", ext.IndexBuilderFunc(newHNSW))
//	}
package ext

import (
	"github.com/lib/pq/oid"
)

// TypeExtension describes a data type: its identity, coercion category,
// storage codec and client wire mapping.
type TypeExtension interface {
	// TypeID returns the stable identity. Extensions use ids >= FirstExtensionTypeID.
	TypeID() TypeID
	// Name returns the unique, case-insensitive type name.
	Name() string
	Category() Category
	// Serialize encodes a value of this type for storage.
	Serialize(v Value) ([]byte, error)
	// Deserialize decodes bytes produced by Serialize. Malformed input must
	// fail with a FLINT_DECODE error.
	Deserialize(b []byte) (Value, error)
	// WireType is the client protocol type tag.
	WireType() oid.Oid
	// FormatText renders a value in the type's text format.
	FormatText(v Value) (string, error)
	// ParseText parses the text format.
	ParseText(s string) (Value, error)
}

// OperatorExtension is one implementation of a binary operator symbol.
// Several implementations may share a symbol as long as they accept
// different operand types.
type OperatorExtension interface {
	Symbol() string
	Accepts(left, right DataType) bool
	ReturnType(left, right DataType) DataType
	Execute(left, right Value) (Value, error)
}

// FunctionExtension is a scalar function. Both methods validate argument
// count and types before doing any work.
type FunctionExtension interface {
	Name() string
	ReturnType(args []DataType) (DataType, error)
	Execute(args []Value) (Value, error)
}

// IndexExtension is a live index structure. Instances are not safe for
// concurrent mutation: the owner must serialize Insert and Serialize against
// every other call, while Search and KNNSearch may run concurrently.
type IndexExtension interface {
	// Structure returns the builder name this instance was built from.
	Structure() string
	// KeyType returns the identity of the indexed key type.
	KeyType() TypeID
	Len() int
	// Insert adds key at ptr. A failed insert leaves the index unchanged.
	Insert(key Value, ptr TuplePointer) error
	// Search returns the pointers stored under key.
	Search(key Value) ([]TuplePointer, error)
	// KNNSearch returns up to k entries ordered by ascending distance, ties
	// broken by pointer order. k == 0 yields an empty result.
	KNNSearch(query Value, k int) ([]Neighbor, error)
	// Serialize snapshots the whole structure without mutating it.
	Serialize() ([]byte, error)
	// Deserialize replaces the contents of an empty instance with a snapshot.
	// On error the instance is left empty.
	Deserialize(b []byte) error
}

// IndexBuilder manufactures empty index instances keyed by a data type.
type IndexBuilder interface {
	Build(key DataType) (IndexExtension, error)
}

// IndexBuilderFunc adapts a function to IndexBuilder.
type IndexBuilderFunc func(key DataType) (IndexExtension, error)

func (f IndexBuilderFunc) Build(key DataType) (IndexExtension, error) { return f(key) }

// Module is the registration entry point of a build-time extension module.
// Register is called exactly once per engine instance, before sealing.
type Module interface {
	// Name returns the unique module identifier (e.g., "vector", "document").
	Name() string
	// Description returns a human-readable description of the module.
	Description() string
	Register(r *Registries) error
}
