package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/albertocavalcante/fsnap/internal/log"
	"github.com/albertocavalcante/fsnap/pkg/snapshot"
)

// snapshotsDir is the directory inside the store that holds one file per root.
const snapshotsDir = "snapshots"

// record is the on-disk envelope around a snapshot.
type record struct {
	Version   int                `json:"version"`
	Root      snapshot.Name      `json:"root"`
	UpdatedAt time.Time          `json:"updated_at"`
	Snapshot  *snapshot.Snapshot `json:"snapshot"`
}

// JSONStore implements Store using one JSON file per root.
type JSONStore struct {
	dir string
}

// NewJSONStore creates a store rooted at dir. Files live under
// dir/snapshots/<sha256(root)>.json; nothing is created until the first Put.
func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{dir: filepath.Join(dir, snapshotsDir)}
}

// Dir returns the directory holding the snapshot files.
func (s *JSONStore) Dir() string { return s.dir }

func (s *JSONStore) pathFor(root string) string {
	sum := sha256.Sum256([]byte(root))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".json")
}

// Get reads the snapshot for root. A missing file means no snapshot.
func (s *JSONStore) Get(ctx context.Context, root string) (*snapshot.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if root == "" {
		return nil, false, ErrEmptyRoot
	}
	rec, err := s.read(s.pathFor(root))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if string(rec.Root) != root {
		return nil, false, fmt.Errorf("state file for %s records root %s", root, rec.Root)
	}
	if rec.Snapshot.RootPath() != root {
		return nil, false, fmt.Errorf("state file for %s: %w", root,
			&snapshot.RootMismatchError{Old: root, New: rec.Snapshot.RootPath()})
	}
	return rec.Snapshot, true, nil
}

func (s *JSONStore) read(path string) (*record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
	}

	// Check version compatibility
	if rec.Version > StoreVersion {
		return nil, fmt.Errorf("%w: state file version %d is newer than supported version %d",
			snapshot.ErrUnsupportedVersion, rec.Version, StoreVersion)
	}
	if rec.Snapshot == nil {
		return nil, fmt.Errorf("%w: state file %s has no snapshot", snapshot.ErrInvalidSnapshot, path)
	}
	return &rec, nil
}

// Put writes the snapshot to disk atomically.
func (s *JSONStore) Put(ctx context.Context, root string, snap *snapshot.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkPut(root, snap); err != nil {
		return err
	}

	// Ensure state directory exists
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	// Marshal to JSON with indentation for readability
	data, err := json.MarshalIndent(record{
		Version:   StoreVersion,
		Root:      snapshot.Name(root),
		UpdatedAt: time.Now().UTC(),
		Snapshot:  snap,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	// Write to a temp file first for atomic update
	path := s.pathFor(root)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp state file: %w", err)
	}

	// Rename temp file to actual file (atomic on POSIX)
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename state file: %w", err)
	}

	log.Component("store").Debug("saved snapshot", "root", root, "entries", snap.Len())
	return nil
}

// Delete removes the state file for root.
func (s *JSONStore) Delete(ctx context.Context, root string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.pathFor(root)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}

// Roots reads the root recorded in every state file.
func (s *JSONStore) Roots(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list state directory: %w", err)
	}

	var roots []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		rec, err := s.read(filepath.Join(s.dir, e.Name()))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		roots = append(roots, string(rec.Root))
	}
	slices.Sort(roots)
	return roots, nil
}

// Close is a no-op; every operation opens and closes its own file.
func (s *JSONStore) Close() error { return nil }
