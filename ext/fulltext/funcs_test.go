package fulltext

import (
	"testing"

	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, cat *ext.Catalog, name string, args ...ext.Value) (ext.Value, error) {
	t.Helper()
	fn, ok := cat.Function(name)
	require.True(t, ok, name)
	return fn.Execute(args)
}

func TestFunctions(t *testing.T) {
	cat := newCatalog(t)
	const fox = "The Quick brown fox"
	tests := []struct {
		name string
		fn   string
		args []ext.Value
		want ext.Value
	}{
		{"tokenize", "fts_tokenize", []ext.Value{ext.Text("Hello, World")}, ext.Text("hello world")},
		{"tokenize porter", "fts_tokenize", []ext.Value{ext.Text("Running dogs"), ext.Text("porter")}, ext.Text("run dog")},
		{"tokenize empty", "fts_tokenize", []ext.Value{ext.Text("!!")}, ext.Text("")},
		{"tokenize null", "fts_tokenize", []ext.Value{ext.Null()}, ext.Null()},
		{"match", "fts_match", []ext.Value{ext.Text(fox), ext.Text("quick AND fox")}, ext.Bool(true)},
		{"match not", "fts_match", []ext.Value{ext.Text(fox), ext.Text("quick NOT fox")}, ext.Bool(false)},
		{"match phrase", "fts_match", []ext.Value{ext.Text(fox), ext.Text(`"brown fox"`)}, ext.Bool(true)},
		{"match stemmed", "fts_match", []ext.Value{ext.Text("she runs"), ext.Text("running"), ext.Text("porter")}, ext.Bool(true)},
		{"match unstemmed", "fts_match", []ext.Value{ext.Text("she runs"), ext.Text("running")}, ext.Bool(false)},
		{"match null", "fts_match", []ext.Value{ext.Null(), ext.Text("x")}, ext.Null()},
		{"highlight", "fts_highlight", []ext.Value{ext.Text(fox), ext.Text("quick")}, ext.Text("The <b>Quick</b> brown fox")},
		{"highlight tags", "fts_highlight", []ext.Value{ext.Text(fox), ext.Text("fox OR the"), ext.Text("["), ext.Text("]")}, ext.Text("[The] Quick brown [fox]")},
		{"snippet", "fts_snippet", []ext.Value{
			ext.Text("one two three four five six seven eight nine ten"), ext.Text("six"),
			ext.Text("["), ext.Text("]"), ext.Text(".."), ext.Int(3),
		}, ext.Text("..four five [six]..")},
		{"snippet defaults", "fts_snippet", []ext.Value{ext.Text(fox), ext.Text("brown")}, ext.Text("The Quick <b>brown</b> fox")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(t, cat, tt.fn, tt.args...)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestFunctionErrors(t *testing.T) {
	cat := newCatalog(t)
	tests := []struct {
		name string
		fn   string
		args []ext.Value
		code errors.ErrorCode
	}{
		{"unknown tokenizer", "fts_tokenize", []ext.Value{ext.Text("x"), ext.Text("klingon")}, errors.FLINT_EXEC},
		{"tokenize int", "fts_tokenize", []ext.Value{ext.Int(1)}, errors.FLINT_TYPE},
		{"bad query", "fts_match", []ext.Value{ext.Text("x"), ext.Text("(x")}, errors.FLINT_EXEC},
		{"match arity", "fts_match", []ext.Value{ext.Text("x")}, errors.FLINT_ARITY},
		{"snippet zero tokens", "fts_snippet", []ext.Value{ext.Text("x"), ext.Text("x"), ext.Text("<"), ext.Text(">"), ext.Text("."), ext.Int(0)}, errors.FLINT_EXEC},
		{"snippet text count", "fts_snippet", []ext.Value{ext.Text("x"), ext.Text("x"), ext.Text("<"), ext.Text(">"), ext.Text("."), ext.Text("3")}, errors.FLINT_TYPE},
		{"highlight tag type", "fts_highlight", []ext.Value{ext.Text("x"), ext.Text("x"), ext.Int(1)}, errors.FLINT_TYPE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := call(t, cat, tt.fn, tt.args...)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestFunctionReturnTypes(t *testing.T) {
	cat := newCatalog(t)
	fn, ok := cat.Function("fts_snippet")
	require.True(t, ok)

	dt, err := fn.ReturnType([]ext.DataType{ext.TypeText, ext.TypeText, ext.TypeText, ext.TypeText, ext.TypeText, ext.TypeInt})
	require.NoError(t, err)
	assert.True(t, dt.Is(ext.TypeIDText))

	_, err = fn.ReturnType([]ext.DataType{ext.TypeText, ext.TypeText, ext.TypeText, ext.TypeText, ext.TypeText, ext.TypeText})
	assert.True(t, errors.IsCode(err, errors.FLINT_TYPE))
	_, err = fn.ReturnType([]ext.DataType{ext.TypeInt, ext.TypeText})
	assert.True(t, errors.IsCode(err, errors.FLINT_TYPE))

	fn, _ = cat.Function("fts_match")
	dt, err = fn.ReturnType([]ext.DataType{ext.TypeText, ext.TypeNull})
	require.NoError(t, err)
	assert.True(t, dt.Is(ext.TypeIDBool))
}

func TestMatchOperator(t *testing.T) {
	cat := newCatalog(t)
	op, ok := cat.Operator("@@", ext.TypeText, ext.TypeText)
	require.True(t, ok)
	assert.True(t, op.ReturnType(ext.TypeText, ext.TypeText).Is(ext.TypeIDBool))

	got, err := op.Execute(ext.Text("quick brown fox"), ext.Text("brown AND fox"))
	require.NoError(t, err)
	assert.True(t, ext.Bool(true).Equal(got))

	got, err = op.Execute(ext.Text("quick brown fox"), ext.Text("dog"))
	require.NoError(t, err)
	assert.True(t, ext.Bool(false).Equal(got))

	_, err = op.Execute(ext.Text("x"), ext.Text("x OR"))
	assert.True(t, errors.IsCode(err, errors.FLINT_EXEC))

	_, ok = cat.Operator("@@", ext.TypeText, ext.TypeInt)
	assert.False(t, ok)
}
