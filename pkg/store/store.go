// Package store persists snapshots between runs, keyed by root path.
//
// A Store only holds snapshots; deciding whether a root changed is the job of
// snapshot.Check. All implementations are safe for concurrent use.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/albertocavalcante/fsnap/internal/log"
	"github.com/albertocavalcante/fsnap/pkg/config"
	"github.com/albertocavalcante/fsnap/pkg/snapshot"
)

// StoreVersion is the version of the on-disk record layout.
const StoreVersion = 1

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// ErrEmptyRoot is returned when a store is asked about an empty root key.
var ErrEmptyRoot = errors.New("root must not be empty")

// Store defines the interface for snapshot persistence.
type Store interface {
	// Get returns the stored snapshot for root. The bool is false when no
	// snapshot has been recorded.
	Get(ctx context.Context, root string) (*snapshot.Snapshot, bool, error)

	// Put records snap as the latest snapshot for root, superseding any
	// previous one.
	Put(ctx context.Context, root string, snap *snapshot.Snapshot) error

	// Delete forgets root. Deleting an unknown root is not an error.
	Delete(ctx context.Context, root string) error

	// Roots lists every recorded root in sorted order.
	Roots(ctx context.Context) ([]string, error)

	Close() error
}

// checkPut validates the arguments common to every Put.
func checkPut(root string, snap *snapshot.Snapshot) error {
	if root == "" {
		return ErrEmptyRoot
	}
	if snap == nil {
		return snapshot.ErrNilSnapshot
	}
	if snap.RootPath() != root {
		return &snapshot.RootMismatchError{Old: root, New: snap.RootPath()}
	}
	return nil
}

// SQLiteFileName is the database file name inside the store directory.
const SQLiteFileName = "snapshots.db"

// Open creates the store described by cfg, wrapped in an LRU cache when
// cfg asks for one.
func Open(cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "", config.BackendJSON:
		s = NewJSONStore(cfg.Path)
	case config.BackendSQLite:
		var db *SQLiteStore
		db, err = NewSQLiteStore(filepath.Join(cfg.Path, SQLiteFileName))
		if err != nil {
			return nil, err
		}
		s = db
	case config.BackendMemory:
		// Already in memory; a cache in front would only duplicate it.
		log.Component("store").Debug("opened store", "backend", config.BackendMemory)
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	log.Component("store").Debug("opened store", "backend", cfg.Backend, "path", cfg.Path)

	if n := cfg.CacheEntries(); n > 0 {
		cached, err := NewCachedStore(s, n)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		return cached, nil
	}
	return s, nil
}
