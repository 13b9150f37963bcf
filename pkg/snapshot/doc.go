// Package snapshot records the state of file-system trees and detects changes
// between recordings.
//
// A Snapshotter walks a root path into an immutable Snapshot: a root
// PathEntry plus, for directories, every descendant in sorted relative-path
// order. Each entry carries a ContentIdentity derived from its bytes (files)
// or from the sorted names and identities of its children (directories), so
// a change anywhere below a directory changes the directory's identity.
// Modification times and sizes never take part.
//
// Diff merges two snapshots of the same root into a ChangeSet of added,
// removed and modified entries. Check and IsUpToDate compose the two for an
// incremental build: no prior snapshot means a first run, otherwise an empty
// ChangeSet means up to date.
//
// Snapshots, entries and hashers hold no shared mutable state and may be
// used from any number of goroutines. Serializing access per root is left
// to the caller.
package snapshot
