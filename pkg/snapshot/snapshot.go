package snapshot

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// SnapshotVersion is the current version of the serialized snapshot format.
const SnapshotVersion = 1

// Snapshot is the immutable recorded state of a file-system subtree.
// Descendants are sorted by relative path; two walks of an unchanged tree
// encode to identical JSON.
type Snapshot struct {
	rootPath    string
	algorithm   Algorithm
	root        PathEntry
	descendants []PathEntry
}

// newSnapshot sorts descendants and takes ownership of the slice.
func newSnapshot(rootPath string, alg Algorithm, root PathEntry, descendants []PathEntry) *Snapshot {
	slices.SortFunc(descendants, func(a, b PathEntry) int {
		return a.rel.Compare(b.rel)
	})
	return &Snapshot{
		rootPath:    rootPath,
		algorithm:   alg,
		root:        root,
		descendants: descendants,
	}
}

// MissingSnapshot returns the canonical snapshot of a path that does not exist.
func MissingSnapshot(rootPath string, alg Algorithm) *Snapshot {
	return newSnapshot(rootPath, alg, NewMissing(rootPath), nil)
}

// RootPath returns the path that was walked.
func (s *Snapshot) RootPath() string { return s.rootPath }

// Algorithm returns the digest algorithm used for every entry.
func (s *Snapshot) Algorithm() Algorithm { return s.algorithm }

// Root returns the entry at the walk origin.
func (s *Snapshot) Root() PathEntry { return s.root }

// Descendants returns a copy of the entries below the root in sorted order.
func (s *Snapshot) Descendants() []PathEntry { return slices.Clone(s.descendants) }

// Entries returns the root followed by all descendants.
func (s *Snapshot) Entries() []PathEntry {
	out := make([]PathEntry, 0, len(s.descendants)+1)
	out = append(out, s.root)
	return append(out, s.descendants...)
}

// Len returns the number of entries including the root.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.descendants) + 1
}

// IsMissing reports whether the root does not exist.
func (s *Snapshot) IsMissing() bool { return s.root.typ == MissingFile }

// Lookup finds an entry by "/"-separated relative path. "" is the root.
func (s *Snapshot) Lookup(rel string) (PathEntry, bool) {
	want := ParseRelativePath(rel)
	if len(want) == 0 {
		return s.root, true
	}
	i, found := sort.Find(len(s.descendants), func(i int) int {
		return want.Compare(s.descendants[i].rel)
	})
	if !found {
		return PathEntry{}, false
	}
	return s.descendants[i], true
}

// PresentEntries returns every entry whose type is not MissingFile.
func (s *Snapshot) PresentEntries() []PathEntry {
	if s.IsMissing() {
		return nil
	}
	return s.Entries()
}

// Validate checks the structural invariants of a snapshot, typically after
// loading one from storage.
func (s *Snapshot) Validate() error {
	if s == nil {
		return ErrNilSnapshot
	}
	if !s.root.IsRoot() {
		return fmt.Errorf("%w: root entry has relative path %q", ErrInvalidSnapshot, s.root.rel)
	}
	if s.root.typ != Directory && len(s.descendants) > 0 {
		return fmt.Errorf("%w: %s root has descendants", ErrInvalidSnapshot, s.root.typ)
	}
	for i, e := range s.descendants {
		if e.IsRoot() {
			return fmt.Errorf("%w: descendant %d has an empty relative path", ErrInvalidSnapshot, i)
		}
		if e.typ == MissingFile {
			return fmt.Errorf("%w: missing entry %q below the root", ErrInvalidSnapshot, e.rel)
		}
		if i > 0 && s.descendants[i-1].rel.Compare(e.rel) >= 0 {
			return fmt.Errorf("%w: descendants out of order at %q", ErrInvalidSnapshot, e.rel)
		}
	}
	return nil
}

type snapshotJSON struct {
	Version     int         `json:"version"`
	RootPath    Name        `json:"root_path"`
	Algorithm   Algorithm   `json:"algorithm"`
	Root        PathEntry   `json:"root"`
	Descendants []PathEntry `json:"descendants"`
}

// MarshalJSON implements json.Marshaler.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	desc := s.descendants
	if desc == nil {
		desc = []PathEntry{}
	}
	return json.Marshal(snapshotJSON{
		Version:     SnapshotVersion,
		RootPath:    Name(s.rootPath),
		Algorithm:   s.algorithm,
		Root:        s.root,
		Descendants: desc,
	})
}

// UnmarshalJSON implements json.Unmarshaler. The decoded snapshot is validated.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw snapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Version > SnapshotVersion {
		return fmt.Errorf("%w: %d is newer than %d", ErrUnsupportedVersion, raw.Version, SnapshotVersion)
	}
	alg, err := ParseAlgorithm(string(raw.Algorithm))
	if err != nil {
		return err
	}
	decoded := Snapshot{
		rootPath:    string(raw.RootPath),
		algorithm:   alg,
		root:        raw.Root,
		descendants: raw.Descendants,
	}
	if len(decoded.descendants) == 0 {
		decoded.descendants = nil
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*s = decoded
	return nil
}

// Decode parses a serialized snapshot.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}

// Encode serializes a snapshot deterministically.
func Encode(s *Snapshot) ([]byte, error) {
	if s == nil {
		return nil, ErrNilSnapshot
	}
	return json.Marshal(s)
}
