package fulltext

import (
	"bytes"
	"slices"
	"strings"

	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/google/btree"
	"github.com/vmihailenco/msgpack/v5"
)

// Builder names of the two inverted index flavours.
const (
	Structure       = "fts"
	PorterStructure = "fts_porter"
)

const termDegree = 32

// postings records, per document holding a term, the token positions of
// the term. docs is ascending.
type postings struct {
	docs      []int32
	positions [][]int32
}

type ftsDoc struct {
	ptr    ext.TuplePointer
	text   string
	length int
}

// Index is an inverted index over text keys. Each inserted key is one
// document; Search takes a match expression and KNNSearch ranks matches
// by BM25.
type Index struct {
	structure string
	tok       Tokenizer
	bm25      BM25Params
	docs      []ftsDoc
	terms     map[string]*postings
	vocab     *btree.BTreeG[string] // terms in order, for prefix scans
	totalLen  int
}

// NewIndex builds an empty index. key must be text.
func NewIndex(structure string, tok Tokenizer, key ext.DataType) (*Index, error) {
	if !key.Is(ext.TypeIDText) {
		return nil, errors.New(errors.FLINT_INDEX, "%s indexes text keys, not %s", structure, key)
	}
	return &Index{
		structure: structure,
		tok:       tok,
		bm25:      DefaultBM25Params(),
		terms:     make(map[string]*postings),
		vocab:     btree.NewG(termDegree, func(a, b string) bool { return a < b }),
	}, nil
}

func buildFTS(key ext.DataType) (ext.IndexExtension, error) {
	return NewIndex(Structure, Unicode61{}, key)
}

func buildPorter(key ext.DataType) (ext.IndexExtension, error) {
	return NewIndex(PorterStructure, Porter{}, key)
}

func (ix *Index) Structure() string    { return ix.structure }
func (ix *Index) KeyType() ext.TypeID  { return ext.TypeIDText }
func (ix *Index) Len() int             { return len(ix.docs) }
func (ix *Index) Tokenizer() Tokenizer { return ix.tok }
func (ix *Index) Vocabulary() int      { return ix.vocab.Len() }

func (ix *Index) Insert(key ext.Value, ptr ext.TuplePointer) error {
	if key.IsNull() {
		return errors.New(errors.FLINT_INDEX, "%s: NULL key", ix.structure)
	}
	text, ok := key.AsText()
	if !ok {
		return errors.New(errors.FLINT_INDEX, "%s: key must be text, got %s", ix.structure, key.Kind())
	}
	ix.add(ptr, text)
	return nil
}

func (ix *Index) add(ptr ext.TuplePointer, text string) {
	id := int32(len(ix.docs))
	toks := ix.tok.Tokenize(text)
	ix.docs = append(ix.docs, ftsDoc{ptr: ptr, text: text, length: len(toks)})
	ix.totalLen += len(toks)
	for _, t := range toks {
		pl, ok := ix.terms[t.Term]
		if !ok {
			pl = &postings{}
			ix.terms[t.Term] = pl
			ix.vocab.ReplaceOrInsert(t.Term)
		}
		if n := len(pl.docs); n == 0 || pl.docs[n-1] != id {
			pl.docs = append(pl.docs, id)
			pl.positions = append(pl.positions, nil)
		}
		last := len(pl.positions) - 1
		pl.positions[last] = append(pl.positions[last], int32(t.Position))
	}
}

func (ix *Index) query(key ext.Value) (*Query, error) {
	s, ok := key.AsText()
	if !ok {
		return nil, errors.New(errors.FLINT_INDEX, "%s: match expression must be text, got %s", ix.structure, key.Kind())
	}
	q, err := ParseQuery(s, ix.tok)
	if err != nil {
		return nil, errors.Wrap(err, errors.FLINT_INDEX, "%s", ix.structure)
	}
	return q, nil
}

// Search returns the pointers of every document matching the expression
// in key, in pointer order.
func (ix *Index) Search(key ext.Value) ([]ext.TuplePointer, error) {
	q, err := ix.query(key)
	if err != nil {
		return nil, err
	}
	ids := ix.eval(q)
	out := make([]ext.TuplePointer, len(ids))
	for i, id := range ids {
		out[i] = ix.docs[id].ptr
	}
	slices.SortFunc(out, ext.ComparePointers)
	return out, nil
}

// KNNSearch returns the k best matches. Distance is 1/(1+score), so the
// highest BM25 score comes first.
func (ix *Index) KNNSearch(query ext.Value, k int) ([]ext.Neighbor, error) {
	if err := ext.CheckK(k); err != nil {
		return nil, err
	}
	q, err := ix.query(query)
	if err != nil {
		return nil, err
	}
	if k == 0 {
		return []ext.Neighbor{}, nil
	}
	ids := ix.eval(q)
	terms := ix.scoringTerms(q)
	out := make([]ext.Neighbor, len(ids))
	for i, id := range ids {
		out[i] = ext.Neighbor{
			Pointer:  ix.docs[id].ptr,
			Distance: 1 / (1 + ix.score(id, terms)),
		}
	}
	ext.SortNeighbors(out)
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// expand lists the indexed terms beginning with prefix.
func (ix *Index) expand(prefix string) []string {
	var out []string
	ix.vocab.AscendGreaterOrEqual(prefix, func(t string) bool {
		if !strings.HasPrefix(t, prefix) {
			return false
		}
		out = append(out, t)
		return true
	})
	return out
}

func (ix *Index) docsOf(term string) []int32 {
	if pl, ok := ix.terms[term]; ok {
		return pl.docs
	}
	return nil
}

// eval returns the ascending ids of documents matching q.
func (ix *Index) eval(q *Query) []int32 {
	switch q.Op {
	case QueryTerm:
		return ix.docsOf(q.Terms[0])
	case QueryPrefix:
		var out []int32
		for _, t := range ix.expand(q.Terms[0]) {
			out = union(out, ix.docsOf(t))
		}
		return out
	case QueryPhrase:
		return ix.phrase(q.Terms)
	case QueryAnd:
		return intersect(ix.eval(q.Children[0]), ix.eval(q.Children[1]))
	case QueryOr:
		return union(ix.eval(q.Children[0]), ix.eval(q.Children[1]))
	case QueryNot:
		if len(q.Children) == 1 {
			return difference(ix.all(), ix.eval(q.Children[0]))
		}
		return difference(ix.eval(q.Children[0]), ix.eval(q.Children[1]))
	}
	return nil
}

func (ix *Index) all() []int32 {
	out := make([]int32, len(ix.docs))
	for i := range out {
		out[i] = int32(i)
	}
	return out
}

func (ix *Index) positions(term string, doc int32) []int32 {
	pl := ix.terms[term]
	i, ok := slices.BinarySearch(pl.docs, doc)
	if !ok {
		return nil
	}
	return pl.positions[i]
}

func (ix *Index) phrase(terms []string) []int32 {
	cand := ix.docsOf(terms[0])
	for _, t := range terms[1:] {
		cand = intersect(cand, ix.docsOf(t))
	}
	var out []int32
	for _, doc := range cand {
	starts:
		for _, p := range ix.positions(terms[0], doc) {
			for i, t := range terms[1:] {
				if _, ok := slices.BinarySearch(ix.positions(t, doc), p+int32(i)+1); !ok {
					continue starts
				}
			}
			out = append(out, doc)
			break
		}
	}
	return out
}

// scoringTerms is the deduplicated set of indexed terms a match is
// ranked on, prefixes expanded.
func (ix *Index) scoringTerms(q *Query) []string {
	seen := map[string]bool{}
	var out []string
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	q.positiveTerms(func(t string, prefix bool) {
		if !prefix {
			add(t)
			return
		}
		for _, e := range ix.expand(t) {
			add(e)
		}
	})
	return out
}

func (ix *Index) score(doc int32, terms []string) float64 {
	n := len(ix.docs)
	avg := float64(ix.totalLen) / float64(n)
	total := 0.0
	for _, t := range terms {
		pl, ok := ix.terms[t]
		if !ok {
			continue
		}
		tf := len(ix.positions(t, doc))
		if tf == 0 {
			continue
		}
		total += ix.bm25.Score(tf, ix.docs[doc].length, avg, len(pl.docs), n)
	}
	return total
}

func intersect(a, b []int32) []int32 {
	var out []int32
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

func union(a, b []int32) []int32 {
	out := make([]int32, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

func difference(a, b []int32) []int32 {
	var out []int32
	j := 0
	for _, x := range a {
		for j < len(b) && b[j] < x {
			j++
		}
		if j < len(b) && b[j] == x {
			continue
		}
		out = append(out, x)
	}
	return out
}

// snapshot keeps the source text of every document; postings are rebuilt
// on restore since tokenization is deterministic.
type snapshot struct {
	KeyType   uint32    `msgpack:"key_type"`
	Tokenizer string    `msgpack:"tokenizer"`
	Docs      []snapDoc `msgpack:"docs"`
}

type snapDoc struct {
	Ptr  []byte `msgpack:"ptr"`
	Text string `msgpack:"text"`
}

func (ix *Index) Serialize() ([]byte, error) {
	snap := snapshot{
		KeyType:   uint32(ext.TypeIDText),
		Tokenizer: ix.tok.Name(),
		Docs:      make([]snapDoc, len(ix.docs)),
	}
	for i, d := range ix.docs {
		snap.Docs[i] = snapDoc{Ptr: d.ptr.AppendBinary(nil), Text: d.text}
	}
	b, err := msgpack.Marshal(&snap)
	if err != nil {
		return nil, errors.Wrap(err, errors.FLINT_ERROR, "%s: encode snapshot", ix.structure)
	}
	return b, nil
}

// Deserialize restores a snapshot into an empty index built with the
// same tokenizer.
func (ix *Index) Deserialize(data []byte) error {
	if len(ix.docs) != 0 {
		return errors.New(errors.FLINT_MISUSE, "%s: deserialize into a non-empty index", ix.structure)
	}
	r := bytes.NewReader(data)
	var snap snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return errors.Wrap(err, errors.FLINT_DECODE, "%s snapshot", ix.structure)
	}
	if r.Len() != 0 {
		return errors.New(errors.FLINT_DECODE, "%s snapshot: %d trailing bytes", ix.structure, r.Len())
	}
	if ext.TypeID(snap.KeyType) != ext.TypeIDText {
		return errors.New(errors.FLINT_DECODE, "%s snapshot: key type %d is not text", ix.structure, snap.KeyType)
	}
	if snap.Tokenizer != ix.tok.Name() {
		return errors.New(errors.FLINT_DECODE, "%s snapshot: tokenizer %q, index uses %q", ix.structure, snap.Tokenizer, ix.tok.Name())
	}
	ptrs := make([]ext.TuplePointer, len(snap.Docs))
	for i, d := range snap.Docs {
		if len(d.Ptr) != ext.TuplePointerSize {
			return errors.New(errors.FLINT_DECODE, "%s snapshot: document %d has a %d-byte pointer", ix.structure, i, len(d.Ptr))
		}
		ptrs[i], _ = ext.DecodeTuplePointer(d.Ptr)
	}
	for i, d := range snap.Docs {
		ix.add(ptrs[i], d.Text)
	}
	return nil
}
