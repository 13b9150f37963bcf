package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func changedPaths(cs *ChangeSet) (added, removed, modified []string) {
	added = relPaths(cs.Added)
	removed = relPaths(cs.Removed)
	for _, c := range cs.Modified {
		modified = append(modified, c.Path())
	}
	return added, removed, modified
}

// Scenario: a root that does not exist is one missing entry and is never
// up to date on its first run.
func TestScenarioMissingRootFirstRun(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nothing")
	snap := take(t, newTestSnapshotter(t, DefaultOptions()), root)

	if snap.Len() != 1 || !snap.IsMissing() {
		t.Fatalf("snapshot = %d entries, missing=%v", snap.Len(), snap.IsMissing())
	}

	upToDate, err := IsUpToDate(nil, snap)
	if err != nil {
		t.Fatal(err)
	}
	if upToDate {
		t.Error("first run must not be up to date")
	}

	cs, _ := Check(nil, snap)
	if !cs.FirstRun || len(cs.Added) != 0 {
		t.Errorf("Check(nil, missing) = first=%v added=%v", cs.FirstRun, relPaths(cs.Added))
	}
}

// Scenarios: persist, re-walk unchanged, overwrite a.txt, delete b.txt.
func TestScenarioPersistModifyDelete(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "x", "b.txt": "y"})
	s := newTestSnapshotter(t, DefaultOptions())

	first := take(t, s, root)
	cs, _ := Check(nil, first)
	if got := relPaths(cs.Added); !slices.Equal(got, []string{"", "a.txt", "b.txt"}) {
		t.Errorf("first run added = %q", got)
	}

	data := mustEncode(t, first)
	stored, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}

	cs, err = Check(stored, take(t, s, root))
	if err != nil {
		t.Fatal(err)
	}
	if !cs.UpToDate() {
		t.Fatalf("unchanged tree after persistence should be up to date: %+v", cs.Paths())
	}

	writeTree(t, root, map[string]string{"a.txt": "z"})
	cs, err = Diff(stored, take(t, s, root))
	if err != nil {
		t.Fatal(err)
	}
	added, removed, modified := changedPaths(cs)
	if len(added) != 0 || len(removed) != 0 {
		t.Errorf("added=%q removed=%q, want none", added, removed)
	}
	if !slices.Equal(modified, []string{"", "a.txt"}) {
		t.Errorf("modified = %q, want root and a.txt", modified)
	}

	current := take(t, s, root)
	if err := os.Remove(filepath.Join(root, "b.txt")); err != nil {
		t.Fatal(err)
	}
	cs, err = Diff(current, take(t, s, root))
	if err != nil {
		t.Fatal(err)
	}
	added, removed, modified = changedPaths(cs)
	if len(added) != 0 || !slices.Equal(removed, []string{"b.txt"}) {
		t.Errorf("added=%q removed=%q, want removed=[b.txt]", added, removed)
	}
	if !slices.Equal(modified, []string{""}) {
		t.Errorf("modified = %q, want only the root directory", modified)
	}
}

func TestDiffTypeChangeIsSingleModification(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"thing": "file"})
	s := newTestSnapshotter(t, DefaultOptions())
	before := take(t, s, root)

	if err := os.Remove(filepath.Join(root, "thing")); err != nil {
		t.Fatal(err)
	}
	writeTree(t, root, map[string]string{"thing/inner.txt": "x"})
	after := take(t, s, root)

	cs, err := Diff(before, after)
	if err != nil {
		t.Fatal(err)
	}
	added, removed, modified := changedPaths(cs)
	if !slices.Equal(modified, []string{"", "thing"}) {
		t.Errorf("modified = %q", modified)
	}
	if !slices.Equal(added, []string{"thing/inner.txt"}) || len(removed) != 0 {
		t.Errorf("added=%q removed=%q", added, removed)
	}
	for _, c := range cs.Modified {
		if c.Path() == "thing" && !c.TypeChanged() {
			t.Error("file replaced by directory should report TypeChanged")
		}
	}
}

func TestDiffMissingToPresent(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out")
	s := newTestSnapshotter(t, DefaultOptions())
	missing := take(t, s, root)
	writeTree(t, root, map[string]string{"a.txt": "x"})
	present := take(t, s, root)

	cs, err := Diff(missing, present)
	if err != nil {
		t.Fatal(err)
	}
	added, removed, modified := changedPaths(cs)
	if !slices.Equal(modified, []string{""}) || !slices.Equal(added, []string{"a.txt"}) || len(removed) != 0 {
		t.Errorf("added=%q removed=%q modified=%q", added, removed, modified)
	}
	if !cs.Modified[0].TypeChanged() || cs.Modified[0].Old.Type() != MissingFile {
		t.Error("root should change from missing to directory")
	}
}

func TestDiffSymmetry(t *testing.T) {
	base := t.TempDir()
	s := newTestSnapshotter(t, DefaultOptions())

	root := filepath.Join(base, "tree")
	writeTree(t, root, map[string]string{"keep.txt": "k", "old/x.txt": "1", "edit.txt": "v1"})
	a := take(t, s, root)

	if err := os.RemoveAll(filepath.Join(root, "old")); err != nil {
		t.Fatal(err)
	}
	writeTree(t, root, map[string]string{"new/y.txt": "2", "edit.txt": "v2"})
	b := take(t, s, root)

	ab, err := Diff(a, b)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := Diff(b, a)
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(relPaths(ab.Added), relPaths(ba.Removed)) {
		t.Errorf("diff(A,B).added %q != diff(B,A).removed %q", relPaths(ab.Added), relPaths(ba.Removed))
	}
	if !slices.Equal(relPaths(ab.Removed), relPaths(ba.Added)) {
		t.Errorf("diff(A,B).removed %q != diff(B,A).added %q", relPaths(ab.Removed), relPaths(ba.Added))
	}
	_, _, mab := changedPaths(ab)
	_, _, mba := changedPaths(ba)
	if !slices.Equal(mab, mba) {
		t.Errorf("modified sets differ: %q vs %q", mab, mba)
	}

	for _, snap := range []*Snapshot{a, b} {
		self, err := Diff(snap, snap)
		if err != nil {
			t.Fatal(err)
		}
		if !self.IsEmpty() {
			t.Errorf("diff(A, A) = %+v", self.Paths())
		}
	}
}

func TestDiffDisjoint(t *testing.T) {
	root := t.TempDir()
	s := newTestSnapshotter(t, DefaultOptions())
	writeTree(t, root, map[string]string{"a": "1", "b/c": "2", "d": "3"})
	before := take(t, s, root)
	_ = os.Remove(filepath.Join(root, "a"))
	writeTree(t, root, map[string]string{"b/c": "changed", "e": "4"})
	after := take(t, s, root)

	cs, err := Diff(before, after)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, p := range cs.Paths() {
		if seen[p.Path] {
			t.Errorf("path %q appears more than once", p.Path)
		}
		seen[p.Path] = true
	}
}

func TestDiffRootMismatch(t *testing.T) {
	base := t.TempDir()
	s := newTestSnapshotter(t, DefaultOptions())
	a := take(t, s, filepath.Join(base, "a"))
	b := take(t, s, filepath.Join(base, "b"))

	_, err := Diff(a, b)
	if !errors.Is(err, ErrRootMismatch) {
		t.Fatalf("err = %v, want ErrRootMismatch", err)
	}
	if errors.Is(err, ErrUnreadableContent) {
		t.Error("root mismatch must be distinguishable from I/O failures")
	}
	var rm *RootMismatchError
	if !errors.As(err, &rm) || rm.Old != a.RootPath() || rm.New != b.RootPath() {
		t.Errorf("RootMismatchError = %#v", err)
	}
}

func TestDiffNil(t *testing.T) {
	snap := MissingSnapshot("/x", SHA256)
	if _, err := Diff(nil, snap); !errors.Is(err, ErrNilSnapshot) {
		t.Errorf("Diff(nil, s) err = %v", err)
	}
	if _, err := Diff(snap, nil); !errors.Is(err, ErrNilSnapshot) {
		t.Errorf("Diff(s, nil) err = %v", err)
	}
	if _, err := Check(snap, nil); !errors.Is(err, ErrNilSnapshot) {
		t.Errorf("Check(s, nil) err = %v", err)
	}
}

func TestDiffAlgorithmChangeIsNeverUpToDate(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "x"})

	sha := take(t, newTestSnapshotter(t, Options{Algorithm: SHA256}), root)
	xx := take(t, newTestSnapshotter(t, Options{Algorithm: XXH3}), root)

	ok, err := IsUpToDate(sha, xx)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("snapshots hashed with different algorithms must not compare as up to date")
	}
}
