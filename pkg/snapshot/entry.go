package snapshot

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// FileType is the kind of file-system entry.
type FileType uint8

const (
	MissingFile FileType = iota
	RegularFile
	Directory
)

func (t FileType) String() string {
	switch t {
	case RegularFile:
		return "file"
	case Directory:
		return "directory"
	default:
		return "missing"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t FileType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *FileType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "file":
		*t = RegularFile
	case "directory":
		*t = Directory
	case "missing":
		*t = MissingFile
	default:
		return fmt.Errorf("unknown file type %q", b)
	}
	return nil
}

// RelativePath is the sequence of segments from a snapshot root to an entry.
// The root itself has an empty relative path.
type RelativePath []string

// ParseRelativePath splits a "/"-separated path. "" and "." denote the root.
func ParseRelativePath(s string) RelativePath {
	s = strings.Trim(filepath.ToSlash(s), "/")
	if s == "" || s == "." {
		return nil
	}
	return strings.Split(s, "/")
}

func (r RelativePath) String() string { return strings.Join(r, "/") }

// Name returns the last segment, or "" for the root.
func (r RelativePath) Name() string {
	if len(r) == 0 {
		return ""
	}
	return r[len(r)-1]
}

// Parent returns the relative path of the containing directory.
func (r RelativePath) Parent() RelativePath {
	if len(r) == 0 {
		return nil
	}
	return r[:len(r)-1:len(r)-1]
}

// Child returns a new relative path with name appended.
func (r RelativePath) Child(name string) RelativePath {
	out := make(RelativePath, len(r), len(r)+1)
	copy(out, r)
	return append(out, name)
}

// Compare orders relative paths segment by segment. A path sorts
// immediately before its descendants, so a sorted list is a pre-order walk.
func (r RelativePath) Compare(other RelativePath) int {
	return slices.Compare(r, other)
}

// PathEntry is the immutable snapshot of one file-system entry.
// Values are built with NewRegularFile, NewDirectory or NewMissing.
type PathEntry struct {
	path    string
	rel     RelativePath
	typ     FileType
	content ContentIdentity
}

// NewRegularFile returns a regular file entry. Content may be missing when
// the file could not be read.
func NewRegularFile(path string, rel RelativePath, content ContentIdentity) PathEntry {
	return PathEntry{path: path, rel: slices.Clone(rel), typ: RegularFile, content: content}
}

// NewDirectory returns a directory entry with the digest of its children.
func NewDirectory(path string, rel RelativePath, content ContentIdentity) PathEntry {
	return PathEntry{path: path, rel: slices.Clone(rel), typ: Directory, content: content}
}

// NewMissing returns the entry for a path that does not exist.
// A missing entry is always the root of its snapshot.
func NewMissing(path string) PathEntry {
	return PathEntry{path: path, typ: MissingFile}
}

// Path returns the absolute path of the entry.
func (e PathEntry) Path() string { return e.path }

// RelativePath returns a copy of the segments from the snapshot root.
func (e PathEntry) RelativePath() RelativePath { return slices.Clone(e.rel) }

// Name returns the last path segment. For the root it is the base name of Path.
func (e PathEntry) Name() string {
	if len(e.rel) == 0 {
		return filepath.Base(e.path)
	}
	return e.rel.Name()
}

// Type returns the entry type.
func (e PathEntry) Type() FileType { return e.typ }

// Content returns the content identity.
func (e PathEntry) Content() ContentIdentity { return e.content }

// IsRoot reports whether the entry is the origin of its snapshot walk.
func (e PathEntry) IsRoot() bool { return len(e.rel) == 0 }

// WithContent returns a copy of e with different content.
// MissingFile entries have no content and cannot be given any.
func (e PathEntry) WithContent(c ContentIdentity) (PathEntry, error) {
	if e.typ == MissingFile {
		return PathEntry{}, fmt.Errorf("%s: %w", e.path, ErrMissingContent)
	}
	out := e
	out.rel = slices.Clone(e.rel)
	out.content = c
	return out, nil
}

func (e PathEntry) String() string {
	return e.typ.String() + " " + e.path
}

// sameAs reports whether two entries have the same relative path.
func (e PathEntry) sameAs(other PathEntry) bool {
	return e.rel.Compare(other.rel) == 0
}

type pathEntryJSON struct {
	Path    Name            `json:"path"`
	Rel     Name            `json:"rel"`
	Type    FileType        `json:"type"`
	Content ContentIdentity `json:"content"`
}

// MarshalJSON implements json.Marshaler.
func (e PathEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(pathEntryJSON{
		Path:    Name(e.path),
		Rel:     Name(e.rel.String()),
		Type:    e.typ,
		Content: e.content,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *PathEntry) UnmarshalJSON(data []byte) error {
	var raw pathEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	path, rel := string(raw.Path), ParseRelativePath(string(raw.Rel))
	switch raw.Type {
	case MissingFile:
		if len(rel) != 0 {
			return fmt.Errorf("%w: missing entry %q is not a root", ErrInvalidSnapshot, path)
		}
		if !raw.Content.IsMissing() {
			return fmt.Errorf("%w: missing entry %q has content", ErrInvalidSnapshot, path)
		}
		*e = NewMissing(path)
	case Directory:
		*e = NewDirectory(path, rel, raw.Content)
	default:
		*e = NewRegularFile(path, rel, raw.Content)
	}
	return nil
}
