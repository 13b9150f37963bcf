package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/albertocavalcante/fsnap/internal/log"
	"github.com/bmatcuk/doublestar/v4"
)

// UnreadablePolicy decides what happens to a non-root entry whose content
// cannot be read.
type UnreadablePolicy string

const (
	// TreatAsMissing records the entry with missing content and continues the walk.
	TreatAsMissing UnreadablePolicy = "missing"

	// Fail aborts the walk with the read error.
	Fail UnreadablePolicy = "fail"
)

// ParseUnreadablePolicy converts a configuration string. "" selects TreatAsMissing.
func ParseUnreadablePolicy(s string) (UnreadablePolicy, error) {
	switch UnreadablePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", TreatAsMissing:
		return TreatAsMissing, nil
	case Fail:
		return Fail, nil
	}
	return "", fmt.Errorf("unknown unreadable policy %q (want missing or fail)", s)
}

// Options configures a Snapshotter.
type Options struct {
	// Algorithm is the content digest algorithm.
	Algorithm Algorithm

	// Unreadable decides how unreadable non-root entries are recorded.
	Unreadable UnreadablePolicy

	// FollowSymlinks resolves symbolic links to their targets. When false,
	// a link is recorded as a regular file whose content is its target text.
	FollowSymlinks bool

	// Ignore holds doublestar patterns matched against "/"-separated
	// relative paths. Matching entries are left out of the snapshot.
	Ignore []string

	// Exclude holds paths left out of every walk along with everything
	// below them, typically the directory snapshots are stored in.
	Exclude []string
}

// DefaultOptions returns sha256 hashing, treat-as-missing and symlink following.
func DefaultOptions() Options {
	return Options{
		Algorithm:      DefaultAlgorithm,
		Unreadable:     TreatAsMissing,
		FollowSymlinks: true,
	}
}

// Snapshotter walks root paths into Snapshots. It is immutable after
// construction; every call to Snapshot owns its own walk state, so one
// Snapshotter may serve any number of goroutines.
type Snapshotter struct {
	hasher Hasher
	opts   Options
}

// NewSnapshotter validates opts and returns a Snapshotter.
func NewSnapshotter(opts Options) (*Snapshotter, error) {
	if opts.Algorithm == "" {
		opts.Algorithm = DefaultAlgorithm
	}
	hasher, err := NewHasher(opts.Algorithm)
	if err != nil {
		return nil, err
	}
	if opts.Unreadable, err = ParseUnreadablePolicy(string(opts.Unreadable)); err != nil {
		return nil, err
	}
	for _, p := range opts.Ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	opts.Ignore = slices.Clone(opts.Ignore)
	exclude := make([]string, 0, len(opts.Exclude))
	for _, p := range opts.Exclude {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude path %q: %w", p, err)
		}
		exclude = append(exclude, abs)
	}
	opts.Exclude = exclude

	return &Snapshotter{hasher: hasher, opts: opts}, nil
}

// Options returns the configuration of s.
func (s *Snapshotter) Options() Options {
	opts := s.opts
	opts.Ignore = slices.Clone(s.opts.Ignore)
	opts.Exclude = slices.Clone(s.opts.Exclude)
	return opts
}

// Hasher returns the hasher used for file and directory digests.
func (s *Snapshotter) Hasher() Hasher { return s.hasher }

// Snapshot walks rootPath and returns its snapshot.
//
// A path that does not exist yields a snapshot with a single MissingFile root.
// Failure to read the root itself is always returned. The context is
// checked between entries, never in the middle of hashing a file.
func (s *Snapshotter) Snapshot(ctx context.Context, rootPath string) (*Snapshot, error) {
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", rootPath, err)
	}

	stat := os.Lstat
	if s.opts.FollowSymlinks {
		stat = os.Stat
	}
	info, err := stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		log.Component("snapshot").Debug("root missing", "root", abs)
		return MissingSnapshot(abs, s.hasher.Algorithm()), nil
	}
	if err != nil {
		return nil, &UnreadableError{Path: abs, Err: err}
	}

	w := &walk{
		ctx:       ctx,
		s:         s,
		ancestors: make(map[string]struct{}),
	}
	root, err := w.visit(abs, nil, info)
	if err != nil {
		return nil, err
	}

	log.Component("snapshot").Debug("snapshot complete",
		"root", abs, "type", root.Type(), "entries", len(w.descendants)+1)
	return newSnapshot(abs, s.hasher.Algorithm(), root, w.descendants), nil
}

// walk holds the state of one Snapshot call.
type walk struct {
	ctx         context.Context
	s           *Snapshotter
	ancestors   map[string]struct{} // canonical directories on the current chain
	descendants []PathEntry
}

func (w *walk) visit(path string, rel RelativePath, info fs.FileInfo) (PathEntry, error) {
	if err := w.ctx.Err(); err != nil {
		return PathEntry{}, err
	}

	mode := info.Mode()
	switch {
	case mode&fs.ModeSymlink != 0:
		// Only reached when links are not followed.
		target, err := os.Readlink(path)
		if err != nil {
			return w.unreadable(path, rel, RegularFile, err)
		}
		return NewRegularFile(path, rel, Present(w.s.hasher.HashBytes([]byte(target)))), nil

	case mode.IsDir():
		return w.visitDir(path, rel)

	case mode.IsRegular():
		d, err := w.s.hasher.HashFile(path)
		if err != nil {
			return w.unreadable(path, rel, RegularFile, err)
		}
		if log.Enabled(log.VerbosityTrace) {
			log.Trace("hashed file", "path", path, "digest", d.Hex())
		}
		return NewRegularFile(path, rel, Present(d)), nil
	}

	// Devices, sockets and pipes have no stable content; reading a pipe
	// would block the walk.
	if len(rel) == 0 {
		return PathEntry{}, &UnreadableError{Path: path, Err: fmt.Errorf("unsupported file mode %s", mode)}
	}
	return PathEntry{}, errSkip
}

func (w *walk) visitDir(path string, rel RelativePath) (PathEntry, error) {
	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		return w.unreadable(path, rel, Directory, err)
	}
	if _, seen := w.ancestors[canonical]; seen {
		return PathEntry{}, &CycleError{Path: path, Target: canonical}
	}
	w.ancestors[canonical] = struct{}{}
	defer delete(w.ancestors, canonical)

	dirents, err := os.ReadDir(path)
	if err != nil {
		return w.unreadable(path, rel, Directory, err)
	}
	slices.SortFunc(dirents, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})

	children := make([]ChildDigest, 0, len(dirents))
	for _, d := range dirents {
		childRel := rel.Child(d.Name())
		if w.ignored(childRel) {
			continue
		}
		childPath := filepath.Join(path, d.Name())
		if slices.Contains(w.s.opts.Exclude, childPath) {
			continue
		}

		info, err := w.childInfo(childPath, d)
		if errors.Is(err, fs.ErrNotExist) {
			if d.Type()&fs.ModeSymlink == 0 {
				// Removed between listing and stat.
				continue
			}
			// Dangling symlink.
			entry, err := w.unreadable(childPath, childRel, RegularFile, err)
			if err != nil {
				return PathEntry{}, err
			}
			children = w.record(children, entry)
			continue
		}
		if err != nil {
			entry, err := w.unreadable(childPath, childRel, direntType(d), err)
			if err != nil {
				return PathEntry{}, err
			}
			children = w.record(children, entry)
			continue
		}

		entry, err := w.visit(childPath, childRel, info)
		if errors.Is(err, errSkip) {
			log.Component("snapshot").Debug("skipping irregular file", "path", childPath)
			continue
		}
		if err != nil {
			return PathEntry{}, err
		}
		children = w.record(children, entry)
	}

	return NewDirectory(path, rel, Present(w.s.hasher.HashDirectory(children))), nil
}

func (w *walk) childInfo(path string, d fs.DirEntry) (fs.FileInfo, error) {
	if w.s.opts.FollowSymlinks && d.Type()&fs.ModeSymlink != 0 {
		return os.Stat(path)
	}
	return d.Info()
}

// direntType is the FileType recorded for a child that could not be stat'ed.
func direntType(d fs.DirEntry) FileType {
	if d.IsDir() {
		return Directory
	}
	return RegularFile
}

func (w *walk) record(children []ChildDigest, e PathEntry) []ChildDigest {
	w.descendants = append(w.descendants, e)
	return append(children, ChildDigest{Name: e.rel.Name(), Type: e.typ, Content: e.content})
}

// unreadable applies the configured policy to an entry that could not be read.
// The root is never recoverable.
func (w *walk) unreadable(path string, rel RelativePath, typ FileType, err error) (PathEntry, error) {
	var ue *UnreadableError
	if !errors.As(err, &ue) {
		err = &UnreadableError{Path: path, Err: err}
	}
	if len(rel) == 0 || w.s.opts.Unreadable == Fail {
		return PathEntry{}, err
	}

	log.Component("snapshot").Warn("recording unreadable entry as missing content", "path", path, "error", err)
	if typ == Directory {
		return NewDirectory(path, rel, Missing()), nil
	}
	return NewRegularFile(path, rel, Missing()), nil
}

func (w *walk) ignored(rel RelativePath) bool {
	return w.s.matchIgnore(rel.String())
}

func (s *Snapshotter) matchIgnore(p string) bool {
	for _, pattern := range s.opts.Ignore {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

// Excludes reports whether the absolute path is, or is inside, an
// excluded path.
func (s *Snapshotter) Excludes(path string) bool {
	for _, ex := range s.opts.Exclude {
		if path == ex || strings.HasPrefix(path, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Ignores reports whether a walk would leave out the "/"-separated relative
// path rel, either directly or because one of its ancestors is ignored.
func (s *Snapshotter) Ignores(rel string) bool {
	if len(s.opts.Ignore) == 0 || rel == "" {
		return false
	}
	for i := range len(rel) {
		if rel[i] == '/' && s.matchIgnore(rel[:i]) {
			return true
		}
	}
	return s.matchIgnore(rel)
}

// errSkip marks an entry that is left out of the snapshot.
var errSkip = errors.New("skip entry")
