package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/albertocavalcante/fsnap/pkg/snapshot"
)

// MemoryStore keeps snapshots in a map. Snapshots are immutable, so the
// stored pointers are handed out directly.
type MemoryStore struct {
	mu     sync.RWMutex
	snaps  map[string]*snapshot.Snapshot
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]*snapshot.Snapshot)}
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, root string) (*snapshot.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	snap, ok := m.snaps[root]
	return snap, ok, nil
}

// Put implements Store.
func (m *MemoryStore) Put(ctx context.Context, root string, snap *snapshot.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkPut(root, snap); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.snaps[root] = snap
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, root string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.snaps, root)
	return nil
}

// Roots implements Store.
func (m *MemoryStore) Roots(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return slices.Sorted(maps.Keys(m.snaps)), nil
}

// Close drops every snapshot.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.snaps = nil
	return nil
}
