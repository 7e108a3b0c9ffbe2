package document

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

// render shows documents as JSON and other values in their debug form.
func render(t *testing.T, v ext.Value) string {
	t.Helper()
	if d, err := From(v); err == nil {
		return d.String()
	}
	return v.String()
}

func TestDocumentFunctions(t *testing.T) {
	cat := newCatalog(t)
	doc := ext.Text(`{"a":{"b":[10,20,30]},"s":"hi","f":1.5,"t":true,"n":null}`)

	tests := []struct {
		name string
		fn   string
		args []ext.Value
		want string
	}{
		{"parse canonicalises", "doc_parse", []ext.Value{ext.Text(`{"b":1, "a":2}`)}, `{"a":2,"b":1}`},
		{"valid", "doc_valid", []ext.Value{ext.Text(`[1]`)}, `true`},
		{"invalid", "doc_valid", []ext.Value{ext.Text(`[1`)}, `false`},
		{"valid null", "doc_valid", []ext.Value{ext.Null()}, `NULL`},
		{"extract nested", "doc_extract", []ext.Value{doc, ext.Text("$.a.b[1]")}, `20`},
		{"extract last", "doc_extract", []ext.Value{doc, ext.Text("$.a.b[#-1]")}, `30`},
		{"extract object", "doc_extract", []ext.Value{doc, ext.Text("$.a")}, `{"b":[10,20,30]}`},
		{"extract missing", "doc_extract", []ext.Value{doc, ext.Text("$.zz")}, `NULL`},
		{"extract many", "doc_extract", []ext.Value{doc, ext.Text("$.s"), ext.Text("$.zz"), ext.Text("$.t")}, `["hi",null,true]`},
		{"type root", "doc_type", []ext.Value{doc}, `"object"`},
		{"type real", "doc_type", []ext.Value{doc, ext.Text("$.f")}, `"real"`},
		{"type int", "doc_type", []ext.Value{doc, ext.Text("$.a.b[0]")}, `"integer"`},
		{"type true", "doc_type", []ext.Value{doc, ext.Text("$.t")}, `"true"`},
		{"type null", "doc_type", []ext.Value{doc, ext.Text("$.n")}, `"null"`},
		{"type missing", "doc_type", []ext.Value{doc, ext.Text("$.q")}, `NULL`},
		{"length object", "doc_length", []ext.Value{doc}, `5`},
		{"length array", "doc_length", []ext.Value{doc, ext.Text("$.a.b")}, `3`},
		{"length scalar", "doc_length", []ext.Value{doc, ext.Text("$.s")}, `1`},
		{"set creates", "doc_set", []ext.Value{ext.Text(`{"a":1}`), ext.Text("$.b"), ext.Int(2)}, `{"a":1,"b":2}`},
		{"set overwrites", "doc_set", []ext.Value{ext.Text(`{"a":1}`), ext.Text("$.a"), ext.Text("x")}, `{"a":"x"}`},
		{"set appends", "doc_set", []ext.Value{ext.Text(`[1]`), ext.Text("$[#]"), ext.Float(2.5)}, `[1,2.5]`},
		{"set missing parent", "doc_set", []ext.Value{ext.Text(`{}`), ext.Text("$.a.b"), ext.Int(1)}, `{}`},
		{"set nests document", "doc_set", []ext.Value{ext.Text(`{}`), ext.Text("$.d"), mustDoc(t, `[1]`)}, `{"d":[1]}`},
		{"set pairs", "doc_set", []ext.Value{ext.Text(`{}`), ext.Text("$.a"), ext.Int(1), ext.Text("$.b"), ext.Bool(false)}, `{"a":1,"b":false}`},
		{"insert keeps existing", "doc_insert", []ext.Value{ext.Text(`{"a":1}`), ext.Text("$.a"), ext.Int(9)}, `{"a":1}`},
		{"insert creates", "doc_insert", []ext.Value{ext.Text(`{"a":1}`), ext.Text("$.c"), ext.Null()}, `{"a":1,"c":null}`},
		{"replace existing", "doc_replace", []ext.Value{ext.Text(`{"a":1}`), ext.Text("$.a"), ext.Int(9)}, `{"a":9}`},
		{"replace skips missing", "doc_replace", []ext.Value{ext.Text(`{"a":1}`), ext.Text("$.b"), ext.Int(9)}, `{"a":1}`},
		{"replace array slot", "doc_replace", []ext.Value{ext.Text(`[1,2,3]`), ext.Text("$[1]"), ext.Text("two")}, `[1,"two",3]`},
		{"remove key", "doc_remove", []ext.Value{doc, ext.Text("$.a"), ext.Text("$.s"), ext.Text("$.f")}, `{"n":null,"t":true}`},
		{"remove element", "doc_remove", []ext.Value{ext.Text(`[1,2,3]`), ext.Text("$[0]")}, `[2,3]`},
		{"remove root", "doc_remove", []ext.Value{ext.Text(`[1]`), ext.Text("$")}, `NULL`},
		{"remove nothing", "doc_remove", []ext.Value{ext.Text(`[1]`)}, `[1]`},
		{"object", "doc_object", []ext.Value{ext.Text("k"), ext.Int(1), ext.Text("j"), ext.Text("v")}, `{"j":"v","k":1}`},
		{"empty object", "doc_object", nil, `{}`},
		{"array", "doc_array", []ext.Value{ext.Int(1), ext.Text("two"), ext.Null(), mustDoc(t, `{"x":1}`)}, `[1,"two",null,{"x":1}]`},
		{"empty array", "doc_array", nil, `[]`},
		{"quote text", "doc_quote", []ext.Value{ext.Text(`say "hi"`)}, `"\"say \\\"hi\\\"\""`},
		{"quote number", "doc_quote", []ext.Value{ext.Float(2.5)}, `"2.5"`},
		{"quote null", "doc_quote", []ext.Value{ext.Null()}, `"null"`},
		{"null document", "doc_extract", []ext.Value{ext.Null(), ext.Text("$.a")}, `NULL`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(t, cat, tt.fn, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, render(t, got))
		})
	}
}

func TestDocumentFunctionsDoNotMutateInput(t *testing.T) {
	cat := newCatalog(t)
	orig := mustDoc(t, `{"a":{"b":[1,2]}}`)
	_, err := call(t, cat, "doc_set", orig, ext.Text("$.a.b[0]"), ext.Int(99))
	require.NoError(t, err)
	_, err = call(t, cat, "doc_remove", orig, ext.Text("$.a.b[1]"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"b":[1,2]}}`, render(t, orig))
}

func TestDocumentFunctionErrors(t *testing.T) {
	cat := newCatalog(t)
	tests := []struct {
		name string
		fn   string
		args []ext.Value
		code errors.ErrorCode
	}{
		{"malformed input", "doc_extract", []ext.Value{ext.Text(`{`), ext.Text("$")}, errors.FLINT_EXEC},
		{"bad path", "doc_extract", []ext.Value{ext.Text(`{}`), ext.Text("a.b")}, errors.FLINT_EXEC},
		{"path not text", "doc_type", []ext.Value{ext.Text(`{}`), ext.Int(1)}, errors.FLINT_TYPE},
		{"doc not document", "doc_length", []ext.Value{ext.Int(1)}, errors.FLINT_TYPE},
		{"set missing value", "doc_set", []ext.Value{ext.Text(`{}`), ext.Text("$.a")}, errors.FLINT_ARITY},
		{"set dangling pair", "doc_set", []ext.Value{ext.Text(`{}`), ext.Text("$.a"), ext.Int(1), ext.Text("$.b")}, errors.FLINT_ARITY},
		{"object odd", "doc_object", []ext.Value{ext.Text("k")}, errors.FLINT_ARITY},
		{"object key", "doc_object", []ext.Value{ext.Int(1), ext.Int(2)}, errors.FLINT_TYPE},
		{"extract arity", "doc_extract", []ext.Value{ext.Text(`{}`)}, errors.FLINT_ARITY},
		{"foreign extension", "doc_array", []ext.Value{ext.Extension(ext.FirstExtensionTypeID+50, 1)}, errors.FLINT_TYPE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := call(t, cat, tt.fn, tt.args...)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestDocumentReturnTypes(t *testing.T) {
	cat := newCatalog(t)
	fn, ok := cat.Function("doc_set")
	require.True(t, ok)

	dt, err := fn.ReturnType([]ext.DataType{DataType, ext.TypeText, ext.TypeInt})
	require.NoError(t, err)
	assert.True(t, dt.Equal(DataType))

	_, err = fn.ReturnType([]ext.DataType{DataType, ext.TypeText, ext.TypeInt, ext.TypeText})
	assert.True(t, errors.IsCode(err, errors.FLINT_ARITY))

	_, err = fn.ReturnType([]ext.DataType{ext.TypeInt, ext.TypeText, ext.TypeInt})
	assert.True(t, errors.IsCode(err, errors.FLINT_TYPE))

	fn, _ = cat.Function("doc_type")
	dt, err = fn.ReturnType([]ext.DataType{ext.TypeText})
	require.NoError(t, err)
	assert.True(t, dt.Is(ext.TypeIDText))
}
