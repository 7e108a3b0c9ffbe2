package vector

import (
	"bytes"
	"cmp"
	"container/heap"
	"encoding/binary"
	"io"
	"math"
	"slices"

	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/cyw0ng95/flint/internal/SF/opt"
	"github.com/cyw0ng95/flint/internal/SF/util"
)

// Structure is the builder name of the HNSW index.
const Structure = "hnsw"

const hnswMaxLevel = 16

// Config tunes an HNSW index.
type Config struct {
	// M is the number of links per node above layer 0. Layer 0 keeps 2*M.
	M int
	// EfConstruction is the candidate beam used while linking a new node.
	EfConstruction int
	// EfSearch is the minimum candidate beam used by KNNSearch.
	EfSearch int
}

func DefaultConfig() Config {
	return Config{M: 16, EfConstruction: 64, EfSearch: 40}
}

type hnswNode struct {
	ptr   ext.TuplePointer
	vec   Vector
	links [][]int32 // per layer, 0..level
}

func (n *hnswNode) level() int { return len(n.links) - 1 }

// HNSW is a hierarchical navigable small-world graph over L2 distance.
// Level assignment is a pure function of the insertion sequence, so the
// same inserts always produce the same graph.
type HNSW struct {
	cfg       Config
	levelMult float64
	dims      int
	nodes     []*hnswNode
	entry     int32
	top       int
	exact     map[string][]int32
}

// NewHNSW builds an empty index. key must be the vector type.
func NewHNSW(key ext.DataType, cfg Config) (*HNSW, error) {
	if !key.Is(TypeID) {
		return nil, errors.New(errors.FLINT_INDEX, "hnsw indexes vector keys, not %s", key)
	}
	// the snapshot header stores each parameter as a u16
	if cfg.M < 2 || cfg.EfConstruction < 1 || cfg.EfSearch < 1 ||
		cfg.M > math.MaxUint16 || cfg.EfConstruction > math.MaxUint16 || cfg.EfSearch > math.MaxUint16 {
		return nil, errors.New(errors.FLINT_MISUSE, "hnsw: invalid config %+v", cfg)
	}
	return &HNSW{
		cfg:       cfg,
		levelMult: 1 / math.Log(float64(cfg.M)),
		entry:     -1,
		exact:     make(map[string][]int32),
	}, nil
}

func buildHNSW(key ext.DataType) (ext.IndexExtension, error) {
	return NewHNSW(key, DefaultConfig())
}

func (h *HNSW) Structure() string   { return Structure }
func (h *HNSW) KeyType() ext.TypeID { return TypeID }
func (h *HNSW) Len() int            { return len(h.nodes) }

// Dims returns the dimension fixed by the first insert, or 0.
func (h *HNSW) Dims() int { return h.dims }

func (h *HNSW) maxLinks(layer int) int {
	if layer == 0 {
		return 2 * h.cfg.M
	}
	return h.cfg.M
}

// splitmix64 is a bijective mixer; it turns the sequence number into a
// well-distributed uniform draw.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

func (h *HNSW) levelFor(seq uint64) int {
	u := (float64(splitmix64(seq)>>11) + 1) / (1 << 53)
	l := int(-math.Log(u) * h.levelMult)
	return min(l, hnswMaxLevel)
}

func (h *HNSW) keyVector(k ext.Value, what string) (Vector, error) {
	if k.IsNull() {
		return nil, errors.New(errors.FLINT_INDEX, "hnsw: NULL %s", what)
	}
	vec, err := From(k)
	if err != nil {
		return nil, errors.Wrap(err, errors.FLINT_INDEX, "hnsw: %s", what)
	}
	if h.dims != 0 && len(vec) != h.dims {
		return nil, errors.New(errors.FLINT_INDEX, "hnsw: %s has %d dimensions, index has %d", what, len(vec), h.dims)
	}
	return vec, nil
}

func exactKey(v Vector) string { return string(appendVector(nil, v)) }

func (h *HNSW) dist(q Vector, id int32) float64 {
	return opt.SquaredL2Float32(q, h.nodes[id].vec)
}

// Insert links key into the graph. Validation happens before any mutation.
func (h *HNSW) Insert(key ext.Value, ptr ext.TuplePointer) error {
	vec, err := h.keyVector(key, "key")
	if err != nil {
		return err
	}
	if len(h.nodes) >= math.MaxInt32 {
		return errors.New(errors.FLINT_INDEX, "hnsw: index is full")
	}
	id := int32(len(h.nodes))
	level := h.levelFor(uint64(id))
	n := &hnswNode{ptr: ptr, vec: vec, links: make([][]int32, level+1)}
	h.nodes = append(h.nodes, n)
	if h.dims == 0 {
		h.dims = len(vec)
	}
	k := exactKey(vec)
	h.exact[k] = append(h.exact[k], id)

	if h.entry < 0 {
		h.entry, h.top = id, level
		return nil
	}
	ep := h.entry
	for l := h.top; l > level; l-- {
		ep = h.greedy(vec, ep, l)
	}
	for l := min(level, h.top); l >= 0; l-- {
		cands := h.searchLayer(vec, ep, h.cfg.EfConstruction, l)
		nbrs := make([]int32, 0, h.cfg.M)
		for _, c := range cands {
			if c.id != id && len(nbrs) < h.cfg.M {
				nbrs = append(nbrs, c.id)
			}
		}
		n.links[l] = nbrs
		for _, nb := range nbrs {
			h.link(nb, id, l)
		}
		ep = cands[0].id
	}
	if level > h.top {
		h.entry, h.top = id, level
	}
	return nil
}

// link adds a back edge from -> to on layer l, pruning from's list to its
// closest neighbours when it overflows.
func (h *HNSW) link(from, to int32, l int) {
	fn := h.nodes[from]
	fn.links[l] = append(fn.links[l], to)
	if len(fn.links[l]) <= h.maxLinks(l) {
		return
	}
	ranked := make([]candidate, len(fn.links[l]))
	for i, nb := range fn.links[l] {
		ranked[i] = candidate{id: nb, d: h.dist(fn.vec, nb)}
	}
	slices.SortFunc(ranked, h.compareCandidates)
	kept := fn.links[l][:0]
	for _, c := range ranked[:h.maxLinks(l)] {
		kept = append(kept, c.id)
	}
	fn.links[l] = kept
}

func (h *HNSW) greedy(q Vector, ep int32, l int) int32 {
	best, bestD := ep, h.dist(q, ep)
	for changed := true; changed; {
		changed = false
		for _, nb := range h.nodes[best].links[l] {
			if d := h.dist(q, nb); d < bestD {
				best, bestD, changed = nb, d, true
			}
		}
	}
	return best
}

type candidate struct {
	id int32
	d  float64
}

func (h *HNSW) compareCandidates(a, b candidate) int {
	if c := cmp.Compare(a.d, b.d); c != 0 {
		return c
	}
	return h.nodes[a.id].ptr.Compare(h.nodes[b.id].ptr)
}

// candidateHeap is a min-heap by default; far flips it into a max-heap.
type candidateHeap struct {
	items []candidate
	less  func(a, b candidate) bool
}

func (c *candidateHeap) Len() int           { return len(c.items) }
func (c *candidateHeap) Less(i, j int) bool { return c.less(c.items[i], c.items[j]) }
func (c *candidateHeap) Swap(i, j int)      { c.items[i], c.items[j] = c.items[j], c.items[i] }
func (c *candidateHeap) Push(x any)         { c.items = append(c.items, x.(candidate)) }
func (c *candidateHeap) Pop() any {
	last := c.items[len(c.items)-1]
	c.items = c.items[:len(c.items)-1]
	return last
}

// searchLayer is the beam search of the HNSW paper. The result is sorted
// nearest first.
func (h *HNSW) searchLayer(q Vector, ep int32, ef int, l int) []candidate {
	near := func(a, b candidate) bool { return h.compareCandidates(a, b) < 0 }
	start := candidate{id: ep, d: h.dist(q, ep)}
	visited := map[int32]struct{}{ep: {}}
	frontier := &candidateHeap{items: []candidate{start}, less: near}
	found := &candidateHeap{items: []candidate{start}, less: func(a, b candidate) bool { return near(b, a) }}

	for frontier.Len() > 0 {
		c := heap.Pop(frontier).(candidate)
		if worst := found.items[0]; found.Len() >= ef && near(worst, c) {
			break
		}
		for _, nb := range h.nodes[c.id].links[l] {
			if _, seen := visited[nb]; seen {
				continue
			}
			visited[nb] = struct{}{}
			cand := candidate{id: nb, d: h.dist(q, nb)}
			if found.Len() < ef || near(cand, found.items[0]) {
				heap.Push(frontier, cand)
				heap.Push(found, cand)
				if found.Len() > ef {
					heap.Pop(found)
				}
			}
		}
	}
	out := found.items
	slices.SortFunc(out, h.compareCandidates)
	return out
}

// Search returns the pointers whose vector equals key exactly.
func (h *HNSW) Search(key ext.Value) ([]ext.TuplePointer, error) {
	vec, err := h.keyVector(key, "search key")
	if err != nil {
		return nil, err
	}
	ids := h.exact[exactKey(vec)]
	out := make([]ext.TuplePointer, len(ids))
	for i, id := range ids {
		out[i] = h.nodes[id].ptr
	}
	slices.SortFunc(out, ext.ComparePointers)
	return out, nil
}

// KNNSearch returns the k nearest entries by L2 distance. Small indexes and
// requests covering every entry are answered by an exact scan.
func (h *HNSW) KNNSearch(query ext.Value, k int) ([]ext.Neighbor, error) {
	if err := ext.CheckK(k); err != nil {
		return nil, err
	}
	q, err := h.keyVector(query, "query")
	if err != nil {
		return nil, err
	}
	if k == 0 || len(h.nodes) == 0 {
		return []ext.Neighbor{}, nil
	}
	var cands []candidate
	if k >= len(h.nodes) || len(h.nodes) <= h.cfg.EfSearch {
		cands = make([]candidate, len(h.nodes))
		for i := range h.nodes {
			cands[i] = candidate{id: int32(i), d: h.dist(q, int32(i))}
		}
		slices.SortFunc(cands, h.compareCandidates)
	} else {
		ep := h.entry
		for l := h.top; l > 0; l-- {
			ep = h.greedy(q, ep, l)
		}
		cands = h.searchLayer(q, ep, max(h.cfg.EfSearch, k), 0)
	}
	if len(cands) > k {
		cands = cands[:k]
	}
	out := make([]ext.Neighbor, len(cands))
	for i, c := range cands {
		out[i] = ext.Neighbor{Pointer: h.nodes[c.id].ptr, Distance: math.Sqrt(c.d)}
	}
	ext.SortNeighbors(out)
	return out, nil
}

// Serialize layout (little-endian):
//
//	[key type u32] [M u16] [efConstruction u16] [efSearch u16]
//	[dims u16] [count u32] [entry i32] [top u8]
//	per node: [pointer 7] [level u8] [dims x f32]
//	          per layer 0..level: [n u16] [n x u32 neighbour id]
func (h *HNSW) Serialize() ([]byte, error) {
	buf := util.GetBuffer()
	defer util.PutBuffer(buf)
	hdr := hnswHeader{
		KeyType:        uint32(TypeID),
		M:              uint16(h.cfg.M),
		EfConstruction: uint16(h.cfg.EfConstruction),
		EfSearch:       uint16(h.cfg.EfSearch),
		Dims:           uint16(h.dims),
		Count:          uint32(len(h.nodes)),
		Entry:          h.entry,
		Top:            uint8(h.top),
	}
	binary.Write(buf, binary.LittleEndian, &hdr)
	var scratch []byte
	for _, n := range h.nodes {
		scratch = n.ptr.AppendBinary(scratch[:0])
		scratch = append(scratch, uint8(n.level()))
		for _, f := range n.vec {
			scratch = binary.LittleEndian.AppendUint32(scratch, math.Float32bits(f))
		}
		for _, layer := range n.links {
			scratch = binary.LittleEndian.AppendUint16(scratch, uint16(len(layer)))
			for _, nb := range layer {
				scratch = binary.LittleEndian.AppendUint32(scratch, uint32(nb))
			}
		}
		buf.Write(scratch)
	}
	return util.DetachBytes(buf), nil
}

type hnswHeader struct {
	KeyType        uint32
	M              uint16
	EfConstruction uint16
	EfSearch       uint16
	Dims           uint16
	Count          uint32
	Entry          int32
	Top            uint8
}

// Deserialize restores a snapshot into an empty index. The graph is
// validated in full; on error the index stays empty.
func (h *HNSW) Deserialize(data []byte) error {
	if len(h.nodes) != 0 {
		return errors.New(errors.FLINT_MISUSE, "hnsw: deserialize into a non-empty index")
	}
	restored, err := decodeHNSW(data)
	if err != nil {
		return errors.Wrap(err, errors.FLINT_DECODE, "hnsw snapshot")
	}
	*h = *restored
	return nil
}

func decodeHNSW(data []byte) (*HNSW, error) {
	r := bytes.NewReader(data)
	var hdr hnswHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, errors.Wrap(err, errors.FLINT_DECODE, "read header")
	}
	if ext.TypeID(hdr.KeyType) != TypeID {
		return nil, errors.New(errors.FLINT_DECODE, "snapshot key type %d is not vector", hdr.KeyType)
	}
	h, err := NewHNSW(DataType, Config{M: int(hdr.M), EfConstruction: int(hdr.EfConstruction), EfSearch: int(hdr.EfSearch)})
	if err != nil {
		return nil, err
	}
	count := int(hdr.Count)
	if count == 0 {
		if hdr.Entry != -1 || hdr.Dims != 0 || r.Len() != 0 {
			return nil, errors.New(errors.FLINT_DECODE, "inconsistent empty snapshot")
		}
		return h, nil
	}
	if hdr.Dims == 0 || hdr.Entry < 0 || int(hdr.Entry) >= count || int(hdr.Top) > hnswMaxLevel {
		return nil, errors.New(errors.FLINT_DECODE, "invalid header %+v", hdr)
	}
	// smallest node is a pointer, a level byte, the vector and one empty layer
	if minNode := uint64(ext.TuplePointerSize + 1 + 4*int(hdr.Dims) + 2); uint64(count)*minNode > uint64(r.Len()) {
		return nil, errors.New(errors.FLINT_DECODE, "snapshot claims %d nodes in %d bytes", count, r.Len())
	}
	h.dims = int(hdr.Dims)
	h.entry = hdr.Entry
	h.top = int(hdr.Top)
	h.nodes = make([]*hnswNode, count)

	var fixed [ext.TuplePointerSize + 1]byte
	vecBuf := make([]byte, 4*h.dims)
	for i := range h.nodes {
		if _, err := io.ReadFull(r, fixed[:]); err != nil {
			return nil, errors.Wrap(err, errors.FLINT_DECODE, "node %d", i)
		}
		ptr, _ := ext.DecodeTuplePointer(fixed[:ext.TuplePointerSize])
		level := int(fixed[ext.TuplePointerSize])
		if level > h.top {
			return nil, errors.New(errors.FLINT_DECODE, "node %d has level %d above top %d", i, level, h.top)
		}
		if _, err := io.ReadFull(r, vecBuf); err != nil {
			return nil, errors.Wrap(err, errors.FLINT_DECODE, "node %d vector", i)
		}
		vec := make(Vector, h.dims)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(vecBuf[4*j:]))
		}
		if err := validate(vec); err != nil {
			return nil, errors.Wrap(err, errors.FLINT_DECODE, "node %d", i)
		}
		n := &hnswNode{ptr: ptr, vec: vec, links: make([][]int32, level+1)}
		for l := range n.links {
			var cnt uint16
			if err := binary.Read(r, binary.LittleEndian, &cnt); err != nil {
				return nil, errors.Wrap(err, errors.FLINT_DECODE, "node %d layer %d", i, l)
			}
			if int(cnt) > h.maxLinks(l) {
				return nil, errors.New(errors.FLINT_DECODE, "node %d layer %d has %d links", i, l, cnt)
			}
			ids := make([]uint32, cnt)
			if err := binary.Read(r, binary.LittleEndian, ids); err != nil {
				return nil, errors.Wrap(err, errors.FLINT_DECODE, "node %d layer %d links", i, l)
			}
			n.links[l] = make([]int32, cnt)
			for j, id := range ids {
				if int(id) >= count || int(id) == i {
					return nil, errors.New(errors.FLINT_DECODE, "node %d links to invalid node %d", i, id)
				}
				n.links[l][j] = int32(id)
			}
		}
		h.nodes[i] = n
		k := exactKey(vec)
		h.exact[k] = append(h.exact[k], int32(i))
	}
	if r.Len() != 0 {
		return nil, errors.New(errors.FLINT_DECODE, "%d trailing bytes", r.Len())
	}
	if h.nodes[h.entry].level() != h.top {
		return nil, errors.New(errors.FLINT_DECODE, "entry node level %d does not match top %d", h.nodes[h.entry].level(), h.top)
	}
	// every link must point at a node that exists on that layer
	for i, n := range h.nodes {
		for l, layer := range n.links {
			for _, nb := range layer {
				if h.nodes[nb].level() < l {
					return nil, errors.New(errors.FLINT_DECODE, "node %d links to node %d above its level", i, nb)
				}
			}
		}
	}
	return h, nil
}
