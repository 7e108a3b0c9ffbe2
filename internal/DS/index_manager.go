package DS

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/cyw0ng95/flint/internal/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const restoreParallelism = 4

// ManagedIndex is a live index instance. It enforces single-writer,
// multi-reader access: Insert and Snapshot are exclusive, lookups share.
type ManagedIndex struct {
	ID        uuid.UUID
	Name      string
	Structure string
	Key       ext.DataType
	Created   time.Time

	mu  sync.RWMutex
	idx ext.IndexExtension
}

func (m *ManagedIndex) Insert(key ext.Value, ptr ext.TuplePointer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idx.Insert(key, ptr)
}

func (m *ManagedIndex) Search(key ext.Value) ([]ext.TuplePointer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idx.Search(key)
}

func (m *ManagedIndex) KNNSearch(query ext.Value, k int) ([]ext.Neighbor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idx.KNNSearch(query, k)
}

func (m *ManagedIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idx.Len()
}

// Snapshot serializes the index under the exclusive lock.
func (m *ManagedIndex) Snapshot() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idx.Serialize()
}

func (m *ManagedIndex) stats() IndexStats {
	return IndexStats{
		Name:      m.Name,
		ID:        m.ID.String(),
		Structure: m.Structure,
		KeyType:   m.Key.Name(),
		Entries:   m.Len(),
	}
}

// ManagerConfig configures an IndexManager. Zero fields get defaults: an
// in-memory store, a private metrics registry and a discarding logger.
type ManagerConfig struct {
	Store    SnapshotStore
	Metrics  *Metrics
	Logger   *slog.Logger
	Compress bool
}

// IndexManager owns the live index instances of an engine and moves them
// to and from a SnapshotStore.
type IndexManager struct {
	cat      *ext.Catalog
	store    SnapshotStore
	metrics  *Metrics
	log      *slog.Logger
	compress bool

	mu      sync.RWMutex
	indexes map[string]*ManagedIndex
}

func NewIndexManager(cat *ext.Catalog, cfg ManagerConfig) *IndexManager {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(prometheus.NewRegistry())
	}
	return &IndexManager{
		cat:      cat,
		store:    cfg.Store,
		metrics:  cfg.Metrics,
		log:      log.OrDiscard(cfg.Logger),
		compress: cfg.Compress,
		indexes:  make(map[string]*ManagedIndex),
	}
}

func indexName(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", errors.New(errors.FLINT_MISUSE, "index name must not be empty")
	}
	return n, nil
}

// build resolves key against the catalog and manufactures an empty index.
func (im *IndexManager) build(structure string, key ext.DataType) (ext.IndexExtension, ext.DataType, error) {
	registered, ok := im.cat.DataType(key.ID())
	if !ok || !registered.Equal(key) {
		return nil, ext.DataType{}, errors.New(errors.FLINT_NOTFOUND, "key type %s (%d) is not registered", key, key.ID())
	}
	idx, ok, err := im.cat.BuildIndex(structure, registered)
	if !ok {
		return nil, ext.DataType{}, errors.New(errors.FLINT_NOTFOUND, "unknown index structure %q", structure)
	}
	if err != nil {
		return nil, ext.DataType{}, err
	}
	return idx, registered, nil
}

func (im *IndexManager) install(m *ManagedIndex) {
	im.indexes[m.Name] = m
	im.metrics.Live.Set(float64(len(im.indexes)))
}

// Create builds an empty index of structure over key and registers it
// under name.
func (im *IndexManager) Create(name, structure string, key ext.DataType) (*ManagedIndex, error) {
	name, err := indexName(name)
	if err != nil {
		return nil, err
	}
	idx, key, err := im.build(structure, key)
	if err != nil {
		return nil, err
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	if _, ok := im.indexes[name]; ok {
		return nil, errors.New(errors.FLINT_CONFLICT, "index %q already exists", name)
	}
	m := &ManagedIndex{
		ID:        uuid.New(),
		Name:      name,
		Structure: idx.Structure(),
		Key:       key,
		Created:   time.Now(),
		idx:       idx,
	}
	im.install(m)
	im.log.Info("index created", "index", name, "structure", m.Structure, "key", key.Name(), "id", m.ID)
	return m, nil
}

// Get returns the live index registered under name.
func (im *IndexManager) Get(name string) (*ManagedIndex, bool) {
	im.mu.RLock()
	defer im.mu.RUnlock()
	m, ok := im.indexes[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

func (im *IndexManager) mustGet(name string) (*ManagedIndex, error) {
	m, ok := im.Get(name)
	if !ok {
		return nil, errors.New(errors.FLINT_NOTFOUND, "index %q does not exist", name)
	}
	return m, nil
}

// Drop removes the live index and its stored snapshot.
func (im *IndexManager) Drop(ctx context.Context, name string) error {
	m, err := im.mustGet(name)
	if err != nil {
		return err
	}
	im.mu.Lock()
	delete(im.indexes, m.Name)
	im.metrics.Live.Set(float64(len(im.indexes)))
	im.mu.Unlock()
	if err := im.store.Delete(ctx, m.Name); err != nil && !errors.IsCode(err, errors.FLINT_NOTFOUND) {
		return err
	}
	im.log.Info("index dropped", "index", m.Name)
	return nil
}

// List describes every live index, sorted by name.
func (im *IndexManager) List() []IndexStats {
	im.mu.RLock()
	all := make([]*ManagedIndex, 0, len(im.indexes))
	for _, m := range im.indexes {
		all = append(all, m)
	}
	im.mu.RUnlock()
	out := make([]IndexStats, len(all))
	for i, m := range all {
		out[i] = m.stats()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (im *IndexManager) Insert(name string, key ext.Value, ptr ext.TuplePointer) error {
	m, err := im.mustGet(name)
	if err != nil {
		return err
	}
	if err := m.Insert(key, ptr); err != nil {
		im.metrics.InsertErrors.WithLabelValues(m.Structure).Inc()
		return err
	}
	im.metrics.Inserts.WithLabelValues(m.Structure).Inc()
	return nil
}

func (im *IndexManager) Search(name string, key ext.Value) ([]ext.TuplePointer, error) {
	m, err := im.mustGet(name)
	if err != nil {
		return nil, err
	}
	im.metrics.Searches.WithLabelValues(m.Structure, "exact").Inc()
	return m.Search(key)
}

func (im *IndexManager) KNN(name string, query ext.Value, k int) ([]ext.Neighbor, error) {
	m, err := im.mustGet(name)
	if err != nil {
		return nil, err
	}
	im.metrics.Searches.WithLabelValues(m.Structure, "knn").Inc()
	return m.KNNSearch(query, k)
}

// Checkpoint snapshots the named index into the store.
func (im *IndexManager) Checkpoint(ctx context.Context, name string) error {
	m, err := im.mustGet(name)
	if err != nil {
		return err
	}
	body, err := m.Snapshot()
	if err != nil {
		return errors.Wrap(err, errors.CodeOf(err), "serialize index %q", m.Name)
	}
	data, err := EncodeSnapshot(Snapshot{Structure: m.Structure, KeyType: m.Key.ID(), Body: body}, im.compress)
	if err != nil {
		return err
	}
	if err := im.store.Put(ctx, m.Name, data); err != nil {
		return err
	}
	im.metrics.SnapshotBytes.WithLabelValues(m.Structure).Observe(float64(len(data)))
	im.log.Debug("index checkpointed", "index", m.Name, "bytes", len(data), "entries", m.Len())
	return nil
}

// Restore rehydrates the named index from the store, replacing any live
// instance of the same name. The snapshot's key type must still be
// registered and must match what the rebuilt structure reports.
func (im *IndexManager) Restore(ctx context.Context, name string) (*ManagedIndex, error) {
	name, err := indexName(name)
	if err != nil {
		return nil, err
	}
	data, err := im.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.FLINT_DECODE, "index %q", name)
	}
	key, ok := im.cat.DataType(snap.KeyType)
	if !ok {
		return nil, errors.New(errors.FLINT_NOTFOUND, "index %q: snapshot key type %d is not registered", name, snap.KeyType)
	}
	idx, key, err := im.build(snap.Structure, key)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeOf(err), "index %q", name)
	}
	if err := idx.Deserialize(snap.Body); err != nil {
		return nil, errors.Wrap(err, errors.CodeOf(err), "index %q", name)
	}
	if idx.KeyType() != snap.KeyType {
		return nil, errors.New(errors.FLINT_DECODE, "index %q: structure reports key type %d, snapshot has %d", name, idx.KeyType(), snap.KeyType)
	}

	im.mu.Lock()
	defer im.mu.Unlock()
	id := uuid.New()
	if prev, ok := im.indexes[name]; ok {
		id = prev.ID
	}
	m := &ManagedIndex{ID: id, Name: name, Structure: snap.Structure, Key: key, Created: time.Now(), idx: idx}
	im.install(m)
	im.log.Info("index restored", "index", name, "structure", snap.Structure, "entries", idx.Len())
	return m, nil
}

// CheckpointAll snapshots every live index concurrently.
func (im *IndexManager) CheckpointAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(restoreParallelism)
	for _, st := range im.List() {
		name := st.Name
		g.Go(func() error { return im.Checkpoint(ctx, name) })
	}
	return g.Wait()
}

// RestoreAll rehydrates every stored snapshot concurrently.
func (im *IndexManager) RestoreAll(ctx context.Context) error {
	names, err := im.store.List(ctx)
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(restoreParallelism)
	for _, name := range names {
		g.Go(func() error {
			_, err := im.Restore(ctx, name)
			return err
		})
	}
	return g.Wait()
}

// Snapshots lists the names held by the store.
func (im *IndexManager) Snapshots(ctx context.Context) ([]string, error) {
	return im.store.List(ctx)
}

// Close releases the snapshot store.
func (im *IndexManager) Close() error {
	return im.store.Close()
}
