package ext

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/cyw0ng95/flint/internal/SF/errors"
)

// TuplePointerSize is the encoded size of a TuplePointer.
const TuplePointerSize = 7

// TuplePointer locates a tuple in storage: segment, block within the
// segment, slot within the block.
type TuplePointer struct {
	Segment uint32
	Block   uint8
	Slot    uint16
}

// Compare orders pointers by segment, block, then slot.
func (p TuplePointer) Compare(o TuplePointer) int {
	if c := cmp.Compare(p.Segment, o.Segment); c != 0 {
		return c
	}
	if c := cmp.Compare(p.Block, o.Block); c != 0 {
		return c
	}
	return cmp.Compare(p.Slot, o.Slot)
}

func (p TuplePointer) Less(o TuplePointer) bool { return p.Compare(o) < 0 }

func (p TuplePointer) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.Segment, p.Block, p.Slot)
}

// AppendBinary appends the 7-byte little-endian encoding of p.
func (p TuplePointer) AppendBinary(b []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, p.Segment)
	b = append(b, p.Block)
	return binary.LittleEndian.AppendUint16(b, p.Slot)
}

// DecodeTuplePointer reads a pointer written by AppendBinary.
func DecodeTuplePointer(b []byte) (TuplePointer, error) {
	if len(b) < TuplePointerSize {
		return TuplePointer{}, errors.New(errors.FLINT_DECODE, "tuple pointer needs %d bytes, have %d", TuplePointerSize, len(b))
	}
	return TuplePointer{
		Segment: binary.LittleEndian.Uint32(b),
		Block:   b[4],
		Slot:    binary.LittleEndian.Uint16(b[5:]),
	}, nil
}

// Neighbor is one k-NN result.
type Neighbor struct {
	Pointer  TuplePointer
	Distance float64
}

// SortNeighbors orders ns by ascending distance, ties by pointer.
func SortNeighbors(ns []Neighbor) {
	slices.SortFunc(ns, CompareNeighbors)
}

// CompareNeighbors is the k-NN result order.
func CompareNeighbors(a, b Neighbor) int {
	if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
		return c
	}
	return a.Pointer.Compare(b.Pointer)
}

// ComparePointers orders pointers for slices.SortFunc.
func ComparePointers(a, b TuplePointer) int { return a.Compare(b) }

// CheckK validates a k-NN request size.
func CheckK(k int) error {
	if k < 0 {
		return errors.New(errors.FLINT_INDEX, "k must not be negative, got %d", k)
	}
	return nil
}
