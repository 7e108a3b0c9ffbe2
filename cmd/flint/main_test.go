package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/pkg/flint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCatalogSummary(t *testing.T) {
	out, err := run(t, "catalog")
	require.NoError(t, err)
	for _, want := range []string{"REGISTRY", "types", "operators", "functions", "indexes", "modules"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "(5 rows)")
}

func TestCatalogSections(t *testing.T) {
	tests := map[string][]string{
		"types":     {"WIRE OID", "int", "float", "text", "numeric"},
		"operators": {"SYMBOL", "IMPLEMENTATIONS", "+", "="},
		"functions": {"NAME", "ARGS", "abs", "coalesce", "substr", "2-3"},
		"indexes":   {"STRUCTURE", "btree"},
		"modules":   {"DESCRIPTION"},
	}
	for section, wants := range tests {
		t.Run(section, func(t *testing.T) {
			out, err := run(t, "catalog", section)
			require.NoError(t, err)
			for _, w := range wants {
				assert.Contains(t, out, w)
			}
		})
	}

	_, err := run(t, "catalog", "tables")
	assert.Error(t, err)
}

func TestEval(t *testing.T) {
	out, err := run(t, "eval", "1", "+", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "3")
	assert.Contains(t, out, "int")

	out, err = run(t, "eval", "1", "+", "2.5")
	require.NoError(t, err)
	assert.Contains(t, out, "3.5")
	assert.Contains(t, out, "float")

	_, err = run(t, "eval", "1", "+")
	assert.Error(t, err)

	_, err = run(t, "eval", "true", "<->", "1")
	require.Error(t, err)
}

func TestCall(t *testing.T) {
	out, err := run(t, "call", "upper", "'flint'")
	require.NoError(t, err)
	assert.Contains(t, out, "FLINT")
	assert.Contains(t, out, "text")

	out, err = run(t, "call", "coalesce", "null", "text:7")
	require.NoError(t, err)
	assert.Contains(t, out, "7")
	assert.Contains(t, out, "text")

	_, err = run(t, "call", "no_such_function")
	require.Error(t, err)
	assert.True(t, flint.IsErrorCode(err, flint.FLINT_NOTFOUND))

	_, err = run(t, "call", "abs", "1", "2")
	require.Error(t, err)
	assert.True(t, flint.IsErrorCode(err, flint.FLINT_ARITY))
}

func TestSnapshotsList(t *testing.T) {
	out, err := run(t, "snapshots", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "INDEX")
	assert.Contains(t, out, "(0 rows)")
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: error\nsnapshots:\n  backend: badger\n  path: \":memory:\"\n"), 0o600))

	_, err := run(t, "--config", path, "snapshots", "list")
	require.NoError(t, err)

	_, err = run(t, "--config", filepath.Join(dir, "missing.yaml"), "catalog")
	assert.True(t, flint.IsErrorCode(err, flint.FLINT_MISUSE))
}

func TestParseLiteral(t *testing.T) {
	e, err := flint.Open(flint.DefaultConfig())
	require.NoError(t, err)
	defer e.Close()
	cat := e.Catalog()

	tests := []struct {
		in   string
		want ext.Value
	}{
		{"null", ext.Null()},
		{"NULL", ext.Null()},
		{"true", ext.Bool(true)},
		{"False", ext.Bool(false)},
		{"42", ext.Int(42)},
		{"-7", ext.Int(-7)},
		{"2.5", ext.Float(2.5)},
		{"'a b'", ext.Text("a b")},
		{`"quoted"`, ext.Text("quoted")},
		{"plain", ext.Text("plain")},
		{"int:12", ext.Int(12)},
		{"text:12", ext.Text("12")},
		{"nosuchtype:12", ext.Text("nosuchtype:12")},
	}
	for _, tt := range tests {
		got, err := parseLiteral(cat, tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %s", tt.in, got)
	}

	_, err = parseLiteral(cat, "int:abc")
	assert.True(t, flint.IsErrorCode(err, flint.FLINT_DECODE))
}
