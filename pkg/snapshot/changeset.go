package snapshot

import (
	"slices"
)

// Change pairs the old and new entry of a modified path.
type Change struct {
	Old PathEntry `json:"old"`
	New PathEntry `json:"new"`
}

// Path returns the relative path of the change.
func (c Change) Path() string { return c.New.rel.String() }

// TypeChanged reports whether the entry changed type, e.g. a file replaced by a directory.
func (c Change) TypeChanged() bool { return c.Old.typ != c.New.typ }

// ChangeKind labels one line of a ChangeSet listing.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "+"
	ChangeModified ChangeKind = "~"
	ChangeRemoved  ChangeKind = "-"
)

// ChangedPath is one path of a ChangeSet with its kind.
type ChangedPath struct {
	Kind ChangeKind
	Path string
}

// ChangeSet is the delta between two snapshots of one root. A path appears
// in at most one of Added, Removed and Modified. An empty, non-first-run
// ChangeSet means up-to-date.
type ChangeSet struct {
	RootPath string      `json:"root_path"`
	Added    []PathEntry `json:"added"`
	Removed  []PathEntry `json:"removed"`
	Modified []Change    `json:"modified"`

	// FirstRun is set when there was no prior snapshot to compare with.
	FirstRun bool `json:"first_run,omitempty"`
}

// NewChangeSet creates an empty ChangeSet.
func NewChangeSet(rootPath string) *ChangeSet {
	return &ChangeSet{
		RootPath: rootPath,
		Added:    []PathEntry{},
		Removed:  []PathEntry{},
		Modified: []Change{},
	}
}

// IsEmpty returns true if there are no changes.
func (cs *ChangeSet) IsEmpty() bool {
	if cs == nil {
		return true
	}
	return len(cs.Added) == 0 && len(cs.Removed) == 0 && len(cs.Modified) == 0
}

// UpToDate reports whether the ChangeSet proves nothing needs to run.
// A first run is never up to date.
func (cs *ChangeSet) UpToDate() bool {
	if cs == nil {
		return false
	}
	return !cs.FirstRun && cs.IsEmpty()
}

// TotalChanges returns the total number of changed paths.
func (cs *ChangeSet) TotalChanges() int {
	if cs == nil {
		return 0
	}
	return len(cs.Added) + len(cs.Removed) + len(cs.Modified)
}

// Paths lists every changed relative path with its kind, sorted by path.
func (cs *ChangeSet) Paths() []ChangedPath {
	if cs == nil {
		return nil
	}
	type keyed struct {
		rel RelativePath
		cp  ChangedPath
	}
	all := make([]keyed, 0, cs.TotalChanges())
	for _, e := range cs.Added {
		all = append(all, keyed{e.rel, ChangedPath{ChangeAdded, e.rel.String()}})
	}
	for _, c := range cs.Modified {
		all = append(all, keyed{c.New.rel, ChangedPath{ChangeModified, c.Path()}})
	}
	for _, e := range cs.Removed {
		all = append(all, keyed{e.rel, ChangedPath{ChangeRemoved, e.rel.String()}})
	}
	slices.SortFunc(all, func(a, b keyed) int { return a.rel.Compare(b.rel) })

	out := make([]ChangedPath, len(all))
	for i, k := range all {
		out[i] = k.cp
	}
	return out
}

// AffectedDirs returns sorted unique parent directories of changed paths,
// relative to the root. "." is the root itself.
func (cs *ChangeSet) AffectedDirs() []string {
	if cs == nil {
		return nil
	}

	dirs := make(map[string]struct{})
	add := func(rel RelativePath) {
		if len(rel) == 0 {
			return
		}
		parent := rel.Parent().String()
		if parent == "" {
			parent = "."
		}
		dirs[parent] = struct{}{}
	}

	for _, e := range cs.Added {
		add(e.rel)
	}
	for _, c := range cs.Modified {
		add(c.New.rel)
	}
	for _, e := range cs.Removed {
		add(e.rel)
	}

	result := make([]string, 0, len(dirs))
	for dir := range dirs {
		result = append(result, dir)
	}
	slices.Sort(result)
	return result
}
