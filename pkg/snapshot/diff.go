package snapshot

// Diff compares two snapshots of the same root.
//
// Both entry sequences are sorted by relative path, so a single merge pass
// classifies every path: present only in newer is added, only in older is
// removed, and present in both with unequal content or type is modified. A
// type change at a path is always one modification, never a remove and an add.
//
// Snapshots of different roots are a caller error and yield a
// *RootMismatchError.
func Diff(older, newer *Snapshot) (*ChangeSet, error) {
	if older == nil || newer == nil {
		return nil, ErrNilSnapshot
	}
	if older.rootPath != newer.rootPath {
		return nil, &RootMismatchError{Old: older.rootPath, New: newer.rootPath}
	}

	cs := NewChangeSet(newer.rootPath)
	a, b := older.Entries(), newer.Entries()

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch c := a[i].rel.Compare(b[j].rel); {
		case c < 0:
			cs.Removed = append(cs.Removed, a[i])
			i++
		case c > 0:
			cs.Added = append(cs.Added, b[j])
			j++
		default:
			if !sameEntry(a[i], b[j]) {
				cs.Modified = append(cs.Modified, Change{Old: a[i], New: b[j]})
			}
			i++
			j++
		}
	}
	cs.Removed = append(cs.Removed, a[i:]...)
	cs.Added = append(cs.Added, b[j:]...)

	return cs, nil
}

// sameEntry reports whether two entries at one path are unchanged.
func sameEntry(a, b PathEntry) bool {
	return a.typ == b.typ && a.content.Equal(b.content)
}

// AllAdded returns a ChangeSet listing every present entry of s as added.
// It marks the first run for a root with no recorded snapshot.
func AllAdded(s *Snapshot) *ChangeSet {
	if s == nil {
		return nil
	}
	cs := NewChangeSet(s.rootPath)
	cs.Added = append(cs.Added, s.PresentEntries()...)
	cs.FirstRun = true
	return cs
}
