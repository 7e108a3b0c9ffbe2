package fulltext

import (
	"testing"

	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

var corpus = []string{
	"The quick brown fox jumps over the lazy dog",
	"A quick brown dog outpaces a quick fox",
	"Lazy dogs sleep all day",
	"SQLite full text search with FTS5",
	"Full text search engines rank documents",
}

func ptr(slot uint16) ext.TuplePointer { return ext.TuplePointer{Slot: slot} }

func newCatalog(t *testing.T) *ext.Catalog {
	t.Helper()
	r := ext.NewRegistries()
	require.NoError(t, ext.RegisterBuiltins(r))
	require.NoError(t, Module{}.Register(r))
	cat, err := r.Seal()
	require.NoError(t, err)
	return cat
}

// buildCorpus indexes corpus[i] at pointer slot i+1.
func buildCorpus(t *testing.T, structure string) ext.IndexExtension {
	t.Helper()
	ix, ok, err := newCatalog(t).BuildIndex(structure, ext.TypeText)
	require.True(t, ok)
	require.NoError(t, err)
	for i, doc := range corpus {
		require.NoError(t, ix.Insert(ext.Text(doc), ptr(uint16(i+1))))
	}
	return ix
}

func slots(ptrs []ext.TuplePointer) []uint16 {
	out := []uint16{}
	for _, p := range ptrs {
		out = append(out, p.Slot)
	}
	return out
}

func TestIndex_Search(t *testing.T) {
	ix := buildCorpus(t, Structure)
	assert.Equal(t, Structure, ix.Structure())
	assert.Equal(t, ext.TypeIDText, ix.KeyType())
	assert.Equal(t, len(corpus), ix.Len())

	tests := []struct {
		query string
		want  []uint16
	}{
		{"quick", []uint16{1, 2}},
		{"QUICK AND dog", []uint16{1, 2}},
		{"lazy", []uint16{1, 3}},
		{"dog", []uint16{1, 2}},
		{"dog*", []uint16{1, 2, 3}},
		{"fox NOT lazy", []uint16{2}},
		{"NOT quick", []uint16{3, 4, 5}},
		{`"full text"`, []uint16{4, 5}},
		{`"text full"`, []uint16{}},
		{`"brown fox"`, []uint16{1}},
		{"sqlite OR engines", []uint16{4, 5}},
		{"(quick OR lazy) NOT fox", []uint16{3}},
		{"nothing", []uint16{}},
		{"fts5", []uint16{4}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := ix.Search(ext.Text(tt.query))
			require.NoError(t, err)
			assert.Equal(t, tt.want, slots(got))
		})
	}
}

func TestIndex_PorterSearch(t *testing.T) {
	ix := buildCorpus(t, PorterStructure)
	for query, want := range map[string][]uint16{
		"dog":       {1, 2, 3},
		"searching": {4, 5},
		"ranking":   {5},
		"document*": {5},
	} {
		got, err := ix.Search(ext.Text(query))
		require.NoError(t, err)
		assert.Equal(t, want, slots(got), query)
	}
}

func TestIndex_SearchErrors(t *testing.T) {
	ix := buildCorpus(t, Structure)
	for _, key := range []ext.Value{ext.Int(1), ext.Null(), ext.Text("a OR"), ext.Text("")} {
		_, err := ix.Search(key)
		assert.True(t, errors.IsCode(err, errors.FLINT_INDEX), "%s: %v", key, err)
	}
}

func TestIndex_Insert(t *testing.T) {
	ix := buildCorpus(t, Structure)
	for _, key := range []ext.Value{ext.Null(), ext.Int(7), ext.Bool(true)} {
		err := ix.Insert(key, ptr(99))
		assert.True(t, errors.IsCode(err, errors.FLINT_INDEX), "%s: %v", key, err)
	}
	assert.Equal(t, len(corpus), ix.Len())

	// a document with no tokens is stored but only NOT can reach it
	require.NoError(t, ix.Insert(ext.Text("  ...  "), ptr(6)))
	got, err := ix.Search(ext.Text("NOT quick"))
	require.NoError(t, err)
	assert.Equal(t, []uint16{3, 4, 5, 6}, slots(got))
}

func TestIndex_BuilderRejectsNonText(t *testing.T) {
	cat := newCatalog(t)
	for _, s := range []string{Structure, PorterStructure} {
		_, ok, err := cat.BuildIndex(s, ext.TypeInt)
		assert.True(t, ok)
		assert.True(t, errors.IsCode(err, errors.FLINT_INDEX), "%s: %v", s, err)
	}
}

func TestIndex_KNNSearch(t *testing.T) {
	ix := buildCorpus(t, Structure)

	got, err := ix.KNNSearch(ext.Text("quick"), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// doc 2 says "quick" twice in a shorter text
	assert.Equal(t, ptr(2), got[0].Pointer)
	assert.Equal(t, ptr(1), got[1].Pointer)
	assert.Less(t, got[0].Distance, got[1].Distance)
	for _, n := range got {
		assert.Greater(t, n.Distance, 0.0)
		assert.Less(t, n.Distance, 1.0)
	}

	got, err = ix.KNNSearch(ext.Text("quick"), 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = ix.KNNSearch(ext.Text("quick"), 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	// unary NOT matches without scoring terms
	got, err = ix.KNNSearch(ext.Text("NOT quick"), 5)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, n := range got {
		assert.Equal(t, 1.0, n.Distance)
	}
	assert.Equal(t, ptr(3), got[0].Pointer)

	_, err = ix.KNNSearch(ext.Text("quick"), -1)
	assert.True(t, errors.IsCode(err, errors.FLINT_INDEX))
	_, err = ix.KNNSearch(ext.Float(1), 1)
	assert.True(t, errors.IsCode(err, errors.FLINT_INDEX))
}

func TestIndex_KNNTiesByPointer(t *testing.T) {
	ix, err := NewIndex(Structure, Unicode61{}, ext.TypeText)
	require.NoError(t, err)
	for _, slot := range []uint16{9, 3, 5} {
		require.NoError(t, ix.Insert(ext.Text("same words here"), ptr(slot)))
	}
	got, err := ix.KNNSearch(ext.Text("words"), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []ext.TuplePointer{ptr(3), ptr(5), ptr(9)}, []ext.TuplePointer{got[0].Pointer, got[1].Pointer, got[2].Pointer})
	assert.Equal(t, got[0].Distance, got[2].Distance)
}

func TestIndex_SerializeRoundTrip(t *testing.T) {
	for _, structure := range []string{Structure, PorterStructure} {
		t.Run(structure, func(t *testing.T) {
			ix := buildCorpus(t, structure)
			data, err := ix.Serialize()
			require.NoError(t, err)

			fresh, _, err := newCatalog(t).BuildIndex(structure, ext.TypeText)
			require.NoError(t, err)
			require.NoError(t, fresh.Deserialize(data))
			assert.Equal(t, ix.Len(), fresh.Len())

			for _, q := range []string{"quick", "dog*", `"full text"`, "NOT lazy", "search OR fox"} {
				a, err := ix.Search(ext.Text(q))
				require.NoError(t, err)
				b, err := fresh.Search(ext.Text(q))
				require.NoError(t, err)
				assert.Equal(t, a, b, q)

				ka, err := ix.KNNSearch(ext.Text(q), 3)
				require.NoError(t, err)
				kb, err := fresh.KNNSearch(ext.Text(q), 3)
				require.NoError(t, err)
				assert.Equal(t, ka, kb, q)
			}

			again, err := fresh.Serialize()
			require.NoError(t, err)
			assert.Equal(t, data, again)

			err = fresh.Deserialize(data)
			assert.True(t, errors.IsCode(err, errors.FLINT_MISUSE))
		})
	}
}

func TestIndex_DeserializeErrors(t *testing.T) {
	porter, err := buildCorpus(t, PorterStructure).Serialize()
	require.NoError(t, err)
	good, err := buildCorpus(t, Structure).Serialize()
	require.NoError(t, err)
	encode := func(s snapshot) []byte {
		b, err := msgpack.Marshal(&s)
		require.NoError(t, err)
		return b
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte{0xc1, 0x00}},
		{"trailing", append(append([]byte(nil), good...), 0xc0)},
		{"other tokenizer", porter},
		{"wrong key type", encode(snapshot{KeyType: uint32(ext.TypeIDInt), Tokenizer: "unicode61"})},
		{"short pointer", encode(snapshot{KeyType: uint32(ext.TypeIDText), Tokenizer: "unicode61", Docs: []snapDoc{{Ptr: []byte{1}, Text: "x"}}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, err := NewIndex(Structure, Unicode61{}, ext.TypeText)
			require.NoError(t, err)
			err = ix.Deserialize(tt.data)
			assert.True(t, errors.IsCode(err, errors.FLINT_DECODE), "got %v", err)
			assert.Zero(t, ix.Len())
		})
	}
}
