package store

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/albertocavalcante/fsnap/pkg/snapshot"
)

// CachedStore keeps recently used snapshots in memory in front of another
// Store. Reads fill the cache; writes go through to the backing store first.
// A Get racing a Put of the same root may cache the older snapshot, so
// callers serialize work per root.
type CachedStore struct {
	inner Store
	cache *lru.Cache[string, *snapshot.Snapshot]
}

// NewCachedStore wraps inner with an LRU holding up to size snapshots.
func NewCachedStore(inner Store, size int) (*CachedStore, error) {
	cache, err := lru.New[string, *snapshot.Snapshot](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot cache: %w", err)
	}
	return &CachedStore{inner: inner, cache: cache}, nil
}

// Unwrap returns the backing store.
func (c *CachedStore) Unwrap() Store { return c.inner }

// Get implements Store.
func (c *CachedStore) Get(ctx context.Context, root string) (*snapshot.Snapshot, bool, error) {
	if snap, ok := c.cache.Get(root); ok {
		return snap, true, nil
	}
	snap, ok, err := c.inner.Get(ctx, root)
	if err != nil || !ok {
		return nil, ok, err
	}
	c.cache.Add(root, snap)
	return snap, true, nil
}

// Put implements Store.
func (c *CachedStore) Put(ctx context.Context, root string, snap *snapshot.Snapshot) error {
	if err := c.inner.Put(ctx, root, snap); err != nil {
		return err
	}
	c.cache.Add(root, snap)
	return nil
}

// Delete implements Store.
func (c *CachedStore) Delete(ctx context.Context, root string) error {
	c.cache.Remove(root)
	return c.inner.Delete(ctx, root)
}

// Roots implements Store.
func (c *CachedStore) Roots(ctx context.Context) ([]string, error) {
	return c.inner.Roots(ctx)
}

// Close purges the cache and closes the backing store.
func (c *CachedStore) Close() error {
	c.cache.Purge()
	return c.inner.Close()
}
