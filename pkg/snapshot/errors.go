package snapshot

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreadableContent is returned when the bytes of an entry cannot be read.
	ErrUnreadableContent = errors.New("unreadable content")

	// ErrSymlinkCycle is returned when a walk revisits a directory on its own ancestor chain.
	ErrSymlinkCycle = errors.New("symlink cycle")

	// ErrRootMismatch is returned when two snapshots of different roots are compared.
	// It signals a programming error, not an I/O failure.
	ErrRootMismatch = errors.New("snapshot root mismatch")

	// ErrNilSnapshot is returned when a nil snapshot is passed where one is required.
	ErrNilSnapshot = errors.New("nil snapshot")

	// ErrMissingContent is returned when content is assigned to a missing entry.
	ErrMissingContent = errors.New("cannot change the content of a missing entry")

	// ErrUnsupportedVersion is returned when decoding a snapshot written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")

	// ErrInvalidSnapshot is returned by Validate for snapshots that violate ordering or type invariants.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// UnreadableError reports an entry whose content could not be read.
type UnreadableError struct {
	Path string
	Err  error
}

func (e *UnreadableError) Error() string {
	return fmt.Sprintf("unreadable content at %s: %v", e.Path, e.Err)
}

func (e *UnreadableError) Unwrap() error { return e.Err }

func (e *UnreadableError) Is(target error) bool { return target == ErrUnreadableContent }

// CycleError reports a symlinked directory that resolves to one of its ancestors.
type CycleError struct {
	Path   string // path as reached by the walk
	Target string // canonical path already on the ancestor chain
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("symlink cycle: %s resolves to ancestor %s", e.Path, e.Target)
}

func (e *CycleError) Is(target error) bool { return target == ErrSymlinkCycle }

// RootMismatchError reports an attempt to diff snapshots of different roots.
type RootMismatchError struct {
	Old string
	New string
}

func (e *RootMismatchError) Error() string {
	return fmt.Sprintf("snapshot root mismatch: %q vs %q", e.Old, e.New)
}

func (e *RootMismatchError) Is(target error) bool { return target == ErrRootMismatch }
