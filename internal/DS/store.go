package DS

import (
	"context"
	"sort"
	"sync"

	"github.com/cyw0ng95/flint/internal/SF/errors"
)

// SnapshotStore persists index snapshots by index name.
type SnapshotStore interface {
	Put(ctx context.Context, name string, data []byte) error
	// Get fails with FLINT_NOTFOUND when no snapshot exists for name.
	Get(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
	// List returns the stored names, sorted.
	List(ctx context.Context) ([]string, error)
	Close() error
}

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := append([]byte(nil), data...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.data[name]
	if !ok {
		return nil, errors.New(errors.FLINT_NOTFOUND, "no snapshot for index %q", name)
	}
	return append([]byte(nil), b...), nil
}

func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.data))
	for n := range s.data {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) Close() error { return nil }
