package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/albertocavalcante/fsnap/internal/log"
	"github.com/albertocavalcante/fsnap/pkg/snapshot"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	root       TEXT PRIMARY KEY,
	version    INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	data       BLOB NOT NULL
)`

// SQLiteStore implements Store on a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
// Use ":memory:" for a throwaway store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	// Pragmas are per connection and ":memory:" is per connection too.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range append(pragmas, sqliteSchema) {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialise %s: %w", path, err)
		}
	}

	log.Component("store").Debug("opened sqlite store", "path", path)
	return &SQLiteStore{db: db}, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, root string) (*snapshot.Snapshot, bool, error) {
	if root == "" {
		return nil, false, ErrEmptyRoot
	}
	var (
		version int
		data    []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT version, data FROM snapshots WHERE root = ?`, root).Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load snapshot for %s: %w", root, err)
	}
	if version > StoreVersion {
		return nil, false, fmt.Errorf("%w: record version %d is newer than supported version %d",
			snapshot.ErrUnsupportedVersion, version, StoreVersion)
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return nil, false, err
	}
	if snap.RootPath() != root {
		return nil, false, fmt.Errorf("snapshot row for %s: %w", root,
			&snapshot.RootMismatchError{Old: root, New: snap.RootPath()})
	}
	return snap, true, nil
}

// Put implements Store with an upsert.
func (s *SQLiteStore) Put(ctx context.Context, root string, snap *snapshot.Snapshot) error {
	if err := checkPut(root, snap); err != nil {
		return err
	}
	data, err := snapshot.Encode(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (root, version, updated_at, data) VALUES (?, ?, ?, ?)
		ON CONFLICT(root) DO UPDATE SET
			version = excluded.version,
			updated_at = excluded.updated_at,
			data = excluded.data`,
		root, StoreVersion, time.Now().UnixMilli(), data)
	if err != nil {
		return fmt.Errorf("failed to save snapshot for %s: %w", root, err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, root string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE root = ?`, root); err != nil {
		return fmt.Errorf("failed to delete snapshot for %s: %w", root, err)
	}
	return nil
}

// Roots implements Store.
func (s *SQLiteStore) Roots(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT root FROM snapshots ORDER BY root`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roots: %w", err)
	}
	defer rows.Close()

	var roots []string
	for rows.Next() {
		var root string
		if err := rows.Scan(&root); err != nil {
			return nil, err
		}
		roots = append(roots, root)
	}
	return roots, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
