package DS

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/cyw0ng95/flint/internal/SF/util"
	"github.com/google/btree"
)

// BTreeStructure is the builder name of the built-in ordered index.
const BTreeStructure = "btree"

const btreeDegree = 16

type btreeEntry struct {
	key ext.Value
	ptr ext.TuplePointer
}

func btreeLess(a, b btreeEntry) bool {
	c, err := ext.CompareScalars(a.key, b.key)
	util.Assert(err == nil, "btree holds incomparable keys %s and %s", a.key, b.key)
	if c != 0 {
		return c < 0
	}
	return a.ptr.Less(b.ptr)
}

// BTreeIndex is an ordered index over a built-in scalar key. Entries are
// (key, pointer) pairs, so duplicate keys are allowed and iterate in pointer
// order. Numeric keys support k-NN by absolute difference.
type BTreeIndex struct {
	key  ext.DataType
	tree *btree.BTreeG[btreeEntry]
}

// NewBTreeIndex builds an empty index over key, which must be a non-null
// built-in type.
func NewBTreeIndex(key ext.DataType) (ext.IndexExtension, error) {
	if key.IsExtension() || key.IsNull() {
		return nil, errors.New(errors.FLINT_INDEX, "btree cannot index keys of type %s", key)
	}
	return &BTreeIndex{key: key, tree: btree.NewG(btreeDegree, btreeLess)}, nil
}

// RegisterIndexBuilders adds the built-in index structures.
func RegisterIndexBuilders(r *ext.Registries) error {
	return r.Indexes.Register(BTreeStructure, ext.IndexBuilderFunc(NewBTreeIndex))
}

func (ix *BTreeIndex) Structure() string   { return BTreeStructure }
func (ix *BTreeIndex) KeyType() ext.TypeID { return ix.key.ID() }
func (ix *BTreeIndex) Len() int            { return ix.tree.Len() }

// checkKey accepts keys of the index kind. Lookups may also mix int and
// float against a numeric index.
func (ix *BTreeIndex) checkKey(k ext.Value, insert bool) error {
	if k.IsNull() {
		return errors.New(errors.FLINT_INDEX, "btree: NULL key")
	}
	if k.Kind() == ix.key.Kind() || (!insert && k.IsNumeric() && ix.key.IsNumeric()) {
		return nil
	}
	return errors.New(errors.FLINT_INDEX, "btree: %s key for %s index", k.Kind(), ix.key)
}

func (ix *BTreeIndex) Insert(key ext.Value, ptr ext.TuplePointer) error {
	if err := ix.checkKey(key, true); err != nil {
		return err
	}
	ix.tree.ReplaceOrInsert(btreeEntry{key: key, ptr: ptr})
	return nil
}

func (ix *BTreeIndex) Search(key ext.Value) ([]ext.TuplePointer, error) {
	if err := ix.checkKey(key, false); err != nil {
		return nil, err
	}
	var out []ext.TuplePointer
	ix.tree.AscendGreaterOrEqual(btreeEntry{key: key}, func(e btreeEntry) bool {
		if c, _ := ext.CompareScalars(e.key, key); c != 0 {
			return false
		}
		out = append(out, e.ptr)
		return true
	})
	return out, nil
}

// KNNSearch walks outwards from the query position in both directions.
// Each side is monotone in distance, so taking k entries per side (plus any
// ties with the k-th) covers the global top k.
func (ix *BTreeIndex) KNNSearch(query ext.Value, k int) ([]ext.Neighbor, error) {
	if err := ext.CheckK(k); err != nil {
		return nil, err
	}
	if !ix.key.IsNumeric() {
		return nil, errors.New(errors.FLINT_INDEX, "btree: k-NN needs a numeric key, index is %s", ix.key)
	}
	q, ok := query.Float64()
	if !ok {
		return nil, errors.New(errors.FLINT_INDEX, "btree: k-NN query must be numeric, got %s", query.Kind())
	}
	if math.IsNaN(q) {
		return nil, errors.New(errors.FLINT_INDEX, "btree: k-NN query is NaN")
	}
	if k == 0 || ix.tree.Len() == 0 {
		return []ext.Neighbor{}, nil
	}
	pivot, dist := ix.knnPivot(query, q)
	var cands []ext.Neighbor
	collect := func() func(e btreeEntry) bool {
		taken := 0
		last := math.Inf(-1)
		return func(e btreeEntry) bool {
			d := dist(e.key)
			if taken >= k && d != last {
				return false
			}
			cands = append(cands, ext.Neighbor{Pointer: e.ptr, Distance: d})
			taken++
			last = d
			return true
		}
	}
	ix.tree.AscendGreaterOrEqual(pivot, collect())
	ix.tree.DescendLessOrEqual(pivot, func() func(btreeEntry) bool {
		next := collect()
		return func(e btreeEntry) bool {
			// the pivot itself sorts before every entry with an equal key
			if c, _ := ext.CompareScalars(e.key, pivot.key); c == 0 {
				return true
			}
			return next(e)
		}
	}())
	ext.SortNeighbors(cands)
	if len(cands) > k {
		cands = cands[:k]
	}
	return cands, nil
}

// knnPivot places the query in the index's own key kind. Int keys are
// ordered and measured as integers, so keys beyond 2^53 stay distinct.
// A fractional query pivots at its ceiling.
func (ix *BTreeIndex) knnPivot(query ext.Value, q float64) (btreeEntry, func(ext.Value) float64) {
	if ix.key.Kind() != ext.KindInt {
		return btreeEntry{key: ext.Float(q)}, func(key ext.Value) float64 {
			f, _ := key.Float64()
			return math.Abs(f - q)
		}
	}
	if n, ok := query.AsInt(); ok {
		return btreeEntry{key: ext.Int(n)}, func(key ext.Value) float64 {
			m, _ := key.AsInt()
			return intDistance(m, n)
		}
	}
	var p int64
	switch c := math.Ceil(q); {
	case c >= math.MaxInt64:
		p = math.MaxInt64
	case c <= math.MinInt64:
		p = math.MinInt64
	default:
		p = int64(c)
	}
	return btreeEntry{key: ext.Int(p)}, func(key ext.Value) float64 {
		m, _ := key.AsInt()
		return math.Abs(float64(m) - q)
	}
}

func intDistance(a, b int64) float64 {
	if a >= b {
		return float64(uint64(a) - uint64(b))
	}
	return float64(uint64(b) - uint64(a))
}

// Serialize layout: [key type u32] [count u32] then per entry
// [payload len u32] [payload] [pointer 7 bytes].
func (ix *BTreeIndex) Serialize() ([]byte, error) {
	te := builtinTypeFor(ix.key.ID())
	buf := util.GetBuffer()
	defer util.PutBuffer(buf)
	binary.Write(buf, binary.LittleEndian, uint32(ix.key.ID()))
	binary.Write(buf, binary.LittleEndian, uint32(ix.tree.Len()))
	var err error
	ix.tree.Ascend(func(e btreeEntry) bool {
		var payload []byte
		if payload, err = te.Serialize(e.key); err != nil {
			return false
		}
		if uint64(len(payload)) > math.MaxUint32 {
			err = errors.New(errors.FLINT_INDEX, "btree: key of %d bytes is too large to snapshot", len(payload))
			return false
		}
		binary.Write(buf, binary.LittleEndian, uint32(len(payload)))
		buf.Write(payload)
		buf.Write(e.ptr.AppendBinary(nil))
		return true
	})
	if err != nil {
		return nil, err
	}
	return util.DetachBytes(buf), nil
}

func (ix *BTreeIndex) Deserialize(data []byte) error {
	if ix.tree.Len() != 0 {
		return errors.New(errors.FLINT_MISUSE, "btree: deserialize into a non-empty index")
	}
	tree, err := ix.decode(data)
	if err != nil {
		return errors.Wrap(err, errors.FLINT_DECODE, "btree snapshot")
	}
	ix.tree = tree
	return nil
}

func (ix *BTreeIndex) decode(data []byte) (*btree.BTreeG[btreeEntry], error) {
	r := bytes.NewReader(data)
	var keyType, count uint32
	if err := binary.Read(r, binary.LittleEndian, &keyType); err != nil {
		return nil, errors.Wrap(err, errors.FLINT_DECODE, "read key type")
	}
	if ext.TypeID(keyType) != ix.key.ID() {
		return nil, errors.New(errors.FLINT_DECODE, "snapshot key type %d does not match index key type %s", keyType, ix.key)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, errors.Wrap(err, errors.FLINT_DECODE, "read entry count")
	}
	// smallest entry is a length prefix plus a pointer
	if uint64(count)*(4+ext.TuplePointerSize) > uint64(r.Len()) {
		return nil, errors.New(errors.FLINT_DECODE, "snapshot claims %d entries in %d bytes", count, r.Len())
	}
	te := builtinTypeFor(ix.key.ID())
	tree := btree.NewG(btreeDegree, btreeLess)
	var ptrBuf [ext.TuplePointerSize]byte
	for i := uint32(0); i < count; i++ {
		var l uint32
		if err := binary.Read(r, binary.LittleEndian, &l); err != nil {
			return nil, errors.Wrap(err, errors.FLINT_DECODE, "read key length")
		}
		if int64(l) > int64(r.Len()) {
			return nil, errors.New(errors.FLINT_DECODE, "entry %d claims a %d byte key in %d bytes", i, l, r.Len())
		}
		payload := make([]byte, l)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, errors.Wrap(err, errors.FLINT_DECODE, "read key")
		}
		key, err := te.Deserialize(payload)
		if err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(r, ptrBuf[:]); err != nil {
			return nil, errors.Wrap(err, errors.FLINT_DECODE, "read pointer")
		}
		ptr, _ := ext.DecodeTuplePointer(ptrBuf[:])
		if key.IsNull() || key.Kind() != ix.key.Kind() {
			return nil, errors.New(errors.FLINT_DECODE, "entry %d has a %s key", i, key.Kind())
		}
		tree.ReplaceOrInsert(btreeEntry{key: key, ptr: ptr})
	}
	if r.Len() != 0 {
		return nil, errors.New(errors.FLINT_DECODE, "%d trailing bytes", r.Len())
	}
	return tree, nil
}

func builtinTypeFor(id ext.TypeID) ext.TypeExtension {
	for _, te := range ext.BuiltinTypes() {
		if te.TypeID() == id {
			return te
		}
	}
	panic(errors.AssertionFailedf("no built-in type %d", id))
}
