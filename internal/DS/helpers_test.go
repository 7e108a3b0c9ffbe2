package DS

import (
	"testing"

	"github.com/cyw0ng95/flint/ext"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) *ext.Catalog {
	t.Helper()
	r := ext.NewRegistries()
	require.NoError(t, ext.RegisterBuiltins(r))
	require.NoError(t, RegisterIndexBuilders(r))
	cat, err := r.Seal()
	require.NoError(t, err)
	return cat
}

func ptr(slot uint16) ext.TuplePointer {
	return ext.TuplePointer{Segment: 1, Block: 0, Slot: slot}
}
