// Package incremental decides whether roots are up to date against their
// recorded snapshots and records new ones.
package incremental

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/albertocavalcante/fsnap/internal/log"
	"github.com/albertocavalcante/fsnap/pkg/snapshot"
	"github.com/albertocavalcante/fsnap/pkg/store"
)

// TrackerOptions configures a Tracker.
type TrackerOptions struct {
	// Jobs bounds how many roots are snapshotted at once. Zero means one per CPU.
	Jobs int
}

// Tracker provides high-level incremental update tracking.
type Tracker struct {
	snapshotter *snapshot.Snapshotter
	store       store.Store
	jobs        int
	locks       *rootLocks
}

// Result is the outcome of checking one root.
type Result struct {
	// Root is the absolute root path.
	Root string `json:"root"`

	// Prior is the recorded snapshot, nil on the first run.
	Prior *snapshot.Snapshot `json:"-"`

	// Current is the snapshot just taken.
	Current *snapshot.Snapshot `json:"-"`

	// Changes describes how Current differs from Prior.
	Changes *snapshot.ChangeSet `json:"changes"`

	UpToDate bool `json:"up_to_date"`
}

// Work is a unit of work run by Tracker.Run when its root is stale.
type Work func(ctx context.Context, res *Result) error

// NewTracker creates a tracker that snapshots with s and remembers
// snapshots in st.
func NewTracker(s *snapshot.Snapshotter, st store.Store, opts TrackerOptions) *Tracker {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	return &Tracker{
		snapshotter: s,
		store:       st,
		jobs:        jobs,
		locks:       newRootLocks(),
	}
}

// Snapshotter returns the snapshotter the tracker walks roots with.
func (t *Tracker) Snapshotter() *snapshot.Snapshotter { return t.snapshotter }

// Status checks root for changes without modifying state.
func (t *Tracker) Status(ctx context.Context, root string) (*Result, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	unlock := t.locks.lock(abs)
	defer unlock()
	return t.status(ctx, abs)
}

// status does the work of Status; the caller holds the root's lock.
func (t *Tracker) status(ctx context.Context, root string) (*Result, error) {
	prior, ok, err := t.store.Get(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to load state for %s: %w", root, err)
	}
	if !ok {
		prior = nil
	}

	current, err := t.snapshotter.Snapshot(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot %s: %w", root, err)
	}

	changes, err := snapshot.Check(prior, current)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Root:     root,
		Prior:    prior,
		Current:  current,
		Changes:  changes,
		UpToDate: changes.UpToDate(),
	}
	log.ForRoot("incremental", root).Debug("checked root",
		"entries", current.Len(),
		"first_run", changes.FirstRun,
		"changes", changes.TotalChanges(),
		"up_to_date", res.UpToDate)
	return res, nil
}

// StatusAll checks every root concurrently. Results follow the order of
// first appearance; repeated roots are checked once.
func (t *Tracker) StatusAll(ctx context.Context, roots []string) ([]*Result, error) {
	return t.forEach(ctx, roots, t.status)
}

// Record stores res.Current as the latest snapshot of res.Root.
func (t *Tracker) Record(ctx context.Context, res *Result) error {
	if res == nil || res.Current == nil {
		return snapshot.ErrNilSnapshot
	}
	unlock := t.locks.lock(res.Root)
	defer unlock()
	return t.put(ctx, res.Current)
}

func (t *Tracker) put(ctx context.Context, snap *snapshot.Snapshot) error {
	if err := t.store.Put(ctx, snap.RootPath(), snap); err != nil {
		return fmt.Errorf("failed to save state for %s: %w", snap.RootPath(), err)
	}
	return nil
}

// Refresh snapshots each root and stores the result, superseding whatever
// was recorded. The returned results describe what changed before the refresh.
func (t *Tracker) Refresh(ctx context.Context, roots ...string) ([]*Result, error) {
	return t.forEach(ctx, roots, func(ctx context.Context, root string) (*Result, error) {
		res, err := t.status(ctx, root)
		if err != nil {
			return nil, err
		}
		if err := t.put(ctx, res.Current); err != nil {
			return nil, err
		}
		return res, nil
	})
}

// Run checks root and, when it is stale, runs work and records the
// snapshot taken after work returns. A failed work leaves the previous
// snapshot in place so the next Run retries. ran reports whether work ran.
func (t *Tracker) Run(ctx context.Context, root string, work Work) (res *Result, ran bool, err error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	unlock := t.locks.lock(abs)
	defer unlock()

	res, err = t.status(ctx, abs)
	if err != nil {
		return nil, false, err
	}
	if res.UpToDate {
		log.ForRoot("incremental", abs).Info("up to date, skipping")
		return res, false, nil
	}

	if err := work(ctx, res); err != nil {
		return res, true, err
	}

	after, err := t.snapshotter.Snapshot(ctx, abs)
	if err != nil {
		return res, true, fmt.Errorf("failed to snapshot %s: %w", abs, err)
	}
	return res, true, t.put(ctx, after)
}

// Forget deletes the recorded snapshots of roots.
func (t *Tracker) Forget(ctx context.Context, roots ...string) error {
	var errs []error
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		unlock := t.locks.lock(abs)
		if err := t.store.Delete(ctx, abs); err != nil {
			errs = append(errs, fmt.Errorf("failed to forget %s: %w", abs, err))
		}
		unlock()
	}
	return errors.Join(errs...)
}

// Roots lists every root with a recorded snapshot.
func (t *Tracker) Roots(ctx context.Context) ([]string, error) {
	return t.store.Roots(ctx)
}

// forEach runs fn once per distinct root, at most t.jobs at a time, holding
// that root's lock. The first error cancels the rest.
func (t *Tracker) forEach(ctx context.Context, roots []string, fn func(context.Context, string) (*Result, error)) ([]*Result, error) {
	var unique []string
	seen := make(map[string]bool, len(roots))
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		unique = append(unique, abs)
	}

	results := make([]*Result, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.jobs)
	for i, root := range unique {
		g.Go(func() error {
			unlock := t.locks.lock(root)
			defer unlock()
			res, err := fn(gctx, root)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
