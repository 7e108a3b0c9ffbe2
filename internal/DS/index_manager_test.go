package DS

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, store SnapshotStore) (*IndexManager, *Metrics) {
	t.Helper()
	metrics := NewMetrics(prometheus.NewRegistry())
	im := NewIndexManager(newCatalog(t), ManagerConfig{Store: store, Metrics: metrics, Compress: true})
	t.Cleanup(func() { im.Close() })
	return im, metrics
}

func TestIndexManagerCreate(t *testing.T) {
	im, metrics := newManager(t, nil)

	m, err := im.Create("  Prices ", BTreeStructure, ext.TypeFloat)
	require.NoError(t, err)
	assert.Equal(t, "prices", m.Name)
	assert.Equal(t, BTreeStructure, m.Structure)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Live))

	_, err = im.Create("PRICES", BTreeStructure, ext.TypeInt)
	assert.True(t, errors.IsCode(err, errors.FLINT_CONFLICT))

	_, err = im.Create("other", "rtree", ext.TypeInt)
	assert.True(t, errors.IsCode(err, errors.FLINT_NOTFOUND))

	_, err = im.Create("other", BTreeStructure, ext.TypeNull)
	assert.True(t, errors.IsCode(err, errors.FLINT_INDEX))

	_, err = im.Create("", BTreeStructure, ext.TypeInt)
	assert.True(t, errors.IsCode(err, errors.FLINT_MISUSE))

	got, ok := im.Get("prices")
	require.True(t, ok)
	assert.Same(t, m, got)
	_, ok = im.Get("other")
	assert.False(t, ok)
}

func TestIndexManagerInsertSearch(t *testing.T) {
	im, metrics := newManager(t, nil)
	_, err := im.Create("ages", BTreeStructure, ext.TypeInt)
	require.NoError(t, err)

	for i, age := range []int64{30, 41, 30} {
		require.NoError(t, im.Insert("ages", ext.Int(age), ptr(uint16(i))))
	}
	assert.Error(t, im.Insert("ages", ext.Text("old"), ptr(9)))

	hits, err := im.Search("ages", ext.Int(30))
	require.NoError(t, err)
	assert.Equal(t, []ext.TuplePointer{ptr(0), ptr(2)}, hits)

	nn, err := im.KNN("ages", ext.Int(40), 1)
	require.NoError(t, err)
	assert.Equal(t, []ext.Neighbor{{Pointer: ptr(1), Distance: 1}}, nn)

	_, err = im.Search("nope", ext.Int(1))
	assert.True(t, errors.IsCode(err, errors.FLINT_NOTFOUND))

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Inserts.WithLabelValues(BTreeStructure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.InsertErrors.WithLabelValues(BTreeStructure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Searches.WithLabelValues(BTreeStructure, "exact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Searches.WithLabelValues(BTreeStructure, "knn")))

	stats := im.List()
	require.Len(t, stats, 1)
	assert.Equal(t, "ages", stats[0].Name)
	assert.Equal(t, "int", stats[0].KeyType)
	assert.Equal(t, 3, stats[0].Entries)
}

func TestIndexManagerCheckpointRestore(t *testing.T) {
	ctx := context.Background()
	badgerStore, err := OpenBadgerStore(InMemoryBadgerConfig())
	require.NoError(t, err)

	for name, store := range map[string]SnapshotStore{"memory": NewMemoryStore(), "badger": badgerStore} {
		t.Run(name, func(t *testing.T) {
			im, _ := newManager(t, store)
			orig, err := im.Create("words", BTreeStructure, ext.TypeText)
			require.NoError(t, err)
			for i, w := range []string{"kiwi", "apple", "kiwi"} {
				require.NoError(t, im.Insert("words", ext.Text(w), ptr(uint16(i))))
			}
			require.NoError(t, im.Checkpoint(ctx, "words"))
			require.NoError(t, im.Insert("words", ext.Text("lime"), ptr(7)))

			restored, err := im.Restore(ctx, "words")
			require.NoError(t, err)
			assert.Equal(t, orig.ID, restored.ID)
			assert.Equal(t, 3, restored.Len())

			hits, err := im.Search("words", ext.Text("kiwi"))
			require.NoError(t, err)
			assert.Equal(t, []ext.TuplePointer{ptr(0), ptr(2)}, hits)
			hits, err = im.Search("words", ext.Text("lime"))
			require.NoError(t, err)
			assert.Empty(t, hits)

			names, err := im.Snapshots(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"words"}, names)

			require.NoError(t, im.Drop(ctx, "words"))
			_, ok := im.Get("words")
			assert.False(t, ok)
			_, err = im.Restore(ctx, "words")
			assert.True(t, errors.IsCode(err, errors.FLINT_NOTFOUND))
		})
	}
}

func TestIndexManagerRestoreNonUTF8Text(t *testing.T) {
	ctx := context.Background()
	im, _ := newManager(t, NewMemoryStore())
	_, err := im.Create("names", BTreeStructure, ext.TypeText)
	require.NoError(t, err)
	require.NoError(t, im.Insert("names", ext.Text("caf\xe9"), ptr(1)))
	require.NoError(t, im.Checkpoint(ctx, "names"))

	restored, err := im.Restore(ctx, "names")
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Len())
	hits, err := im.Search("names", ext.Text("caf\xe9"))
	require.NoError(t, err)
	assert.Equal(t, []ext.TuplePointer{ptr(1)}, hits)
}

func TestIndexManagerRestoreRejectsCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	im, _ := newManager(t, store)

	require.NoError(t, store.Put(ctx, "junk", []byte("not a snapshot")))
	_, err := im.Restore(ctx, "junk")
	assert.True(t, errors.IsCode(err, errors.FLINT_DECODE), "got %v", err)

	data, err := EncodeSnapshot(Snapshot{Structure: BTreeStructure, KeyType: 999, Body: nil}, false)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "orphan", data))
	_, err = im.Restore(ctx, "orphan")
	assert.True(t, errors.IsCode(err, errors.FLINT_NOTFOUND), "got %v", err)

	data, err = EncodeSnapshot(Snapshot{Structure: "lsm", KeyType: ext.TypeIDInt}, false)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "unknown", data))
	_, err = im.Restore(ctx, "unknown")
	assert.True(t, errors.IsCode(err, errors.FLINT_NOTFOUND), "got %v", err)

	data, err = EncodeSnapshot(Snapshot{Structure: BTreeStructure, KeyType: ext.TypeIDInt, Body: []byte{1, 2}}, false)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "short", data))
	_, err = im.Restore(ctx, "short")
	assert.True(t, errors.IsCode(err, errors.FLINT_DECODE), "got %v", err)

	_, ok := im.Get("short")
	assert.False(t, ok)
}

func TestIndexManagerCheckpointAllRestoreAll(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	im, _ := newManager(t, store)
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("idx_%02d", i)
		_, err := im.Create(name, BTreeStructure, ext.TypeInt)
		require.NoError(t, err)
		for j := 0; j <= i; j++ {
			require.NoError(t, im.Insert(name, ext.Int(int64(j)), ptr(uint16(j))))
		}
	}
	require.NoError(t, im.CheckpointAll(ctx))

	fresh := NewIndexManager(newCatalog(t), ManagerConfig{Store: store})
	require.NoError(t, fresh.RestoreAll(ctx))
	stats := fresh.List()
	require.Len(t, stats, 10)
	for i, st := range stats {
		assert.Equal(t, fmt.Sprintf("idx_%02d", i), st.Name)
		assert.Equal(t, i+1, st.Entries)
	}
}

func TestManagedIndexConcurrentReaders(t *testing.T) {
	im, _ := newManager(t, nil)
	_, err := im.Create("n", BTreeStructure, ext.TypeInt)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			assert.NoError(t, im.Insert("n", ext.Int(int64(i)), ptr(uint16(i))))
		}
	}()
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_, err := im.KNN("n", ext.Int(int64(i)), 3)
				assert.NoError(t, err)
				_, err = im.Search("n", ext.Int(int64(i)))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	m, ok := im.Get("n")
	require.True(t, ok)
	assert.Equal(t, 200, m.Len())
}
