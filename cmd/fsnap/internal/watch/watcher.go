package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/albertocavalcante/fsnap/cmd/fsnap/internal/incremental"
	"github.com/albertocavalcante/fsnap/pkg/snapshot"
)

// DefaultDebounce is the debounce window used when Config.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// ErrWatchLimitReached is returned when the OS watch limit is exceeded.
var ErrWatchLimitReached = errors.New("filesystem watch limit reached")

// Config configures the watcher.
type Config struct {
	Roots    []string
	Debounce time.Duration
	Record   bool // store the new snapshot after every stale check
	Verbose  bool
	NoColor  bool
	JSON     bool
	Writer   io.Writer
}

// Watcher watches roots for file changes and re-checks them.
//
// Directories are watched recursively without following symlinks, so edits
// inside a linked directory outside the root are only seen on the next
// change that is.
type Watcher struct {
	config    Config
	roots     []string
	fsWatcher *fsnotify.Watcher
	tracker   *incremental.Tracker
	debouncer *Debouncer
	logger    *Logger

	// checkMu prevents overlapping check rounds
	checkMu sync.Mutex
}

// New creates a new watcher over cfg.Roots using tracker for checks.
func New(cfg Config, tracker *incremental.Tracker) (*Watcher, error) {
	if len(cfg.Roots) == 0 {
		return nil, errors.New("no roots to watch")
	}
	roots := make([]string, 0, len(cfg.Roots))
	for _, root := range cfg.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
		}
		if !slices.Contains(roots, abs) {
			roots = append(roots, abs)
		}
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	logger := NewLogger(LoggerConfig{
		Writer:  cfg.Writer,
		Verbose: cfg.Verbose,
		NoColor: cfg.NoColor,
		JSON:    cfg.JSON,
	})

	return &Watcher{
		config:    cfg,
		roots:     roots,
		fsWatcher: fsWatcher,
		tracker:   tracker,
		logger:    logger,
	}, nil
}

// Run starts the watch loop. It blocks until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	// Checks started by the debouncer finish even while shutting down.
	checkCtx := context.WithoutCancel(ctx)

	window := w.config.Debounce
	if window <= 0 {
		window = DefaultDebounce
	}
	w.debouncer = NewDebouncer(window, func(roots []string) {
		w.check(checkCtx, roots)
	})
	defer w.debouncer.Stop()

	for _, root := range w.roots {
		if err := w.watchRoot(root); err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
	}

	results, err := w.tracker.StatusAll(ctx, w.roots)
	if err != nil {
		return err
	}
	entries := 0
	for _, res := range results {
		entries += res.Current.Len()
	}
	w.logger.Ready(w.roots, entries)
	for _, res := range results {
		w.report(ctx, res)
	}

	// Main event loop
	for {
		select {
		case <-ctx.Done():
			w.logger.Shutdown()
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(err)
		}
	}
}

// watchRoot watches a directory root recursively. A file or missing root is
// watched through its nearest existing parent directory.
func (w *Watcher) watchRoot(root string) error {
	if info, err := os.Stat(root); err == nil && info.IsDir() {
		return w.addRecursive(root, root)
	}

	dir := filepath.Dir(root)
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return w.add(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}

// addRecursive adds dir and all its subdirectories, skipping ignored ones.
func (w *Watcher) addRecursive(dir, root string) error {
	snapshotter := w.tracker.Snapshotter()
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Permission errors are expected in shared trees; report the rest
			if !os.IsPermission(err) || w.config.Verbose {
				w.logger.Error(fmt.Errorf("walk error at %s: %w", path, err))
			}
			return nil
		}

		if !d.IsDir() {
			return nil
		}

		if snapshotter.Excludes(path) {
			return filepath.SkipDir
		}
		if rel, ok := relTo(root, path); ok && snapshotter.Ignores(rel) {
			return filepath.SkipDir
		}

		return w.add(path)
	})
}

func (w *Watcher) add(path string) error {
	if err := w.fsWatcher.Add(path); err != nil {
		// Check for inotify limit errors
		if isWatchLimitError(err) {
			return fmt.Errorf("%w for %s: %v\n"+
				"Increase limit with: sudo sysctl fs.inotify.max_user_watches=524288", ErrWatchLimitReached, path, err)
		}
		if w.config.Verbose {
			w.logger.Error(fmt.Errorf("failed to watch %s: %w", path, err))
		}
	}
	return nil
}

// isWatchLimitError checks if an error is due to inotify watch limits.
func isWatchLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "no space left on device") ||
		strings.Contains(errStr, "too many open files")
}

// relTo returns path relative to root in "/" form, and whether path is root
// or inside it.
func relTo(root, path string) (string, bool) {
	if path == root {
		return "", true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// changeKind maps an fsnotify operation to a change label.
func changeKind(op fsnotify.Op) (snapshot.ChangeKind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return snapshot.ChangeAdded, true
	case op.Has(fsnotify.Write):
		return snapshot.ChangeModified, true
	case op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename):
		return snapshot.ChangeRemoved, true
	default:
		// Ignore chmod events
		return "", false
	}
}

// handleEvent processes a single filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	kind, ok := changeKind(event.Op)
	if !ok {
		return
	}
	path := event.Name
	snapshotter := w.tracker.Snapshotter()
	if snapshotter.Excludes(path) {
		return
	}

	isNewDir := false
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			isNewDir = true
		}
	}

	logged := false
	for _, root := range w.roots {
		rel, inside := relTo(root, path)
		if !inside {
			// A directory on the way to a missing root appeared.
			if isNewDir {
				if _, below := relTo(path, root); below {
					if err := w.watchRoot(root); err != nil {
						w.logger.Error(err)
					}
					w.debouncer.Add(root)
				}
			}
			continue
		}
		if snapshotter.Ignores(rel) {
			continue
		}

		if isNewDir {
			// Add new directory to watcher
			if err := w.addRecursive(path, root); err != nil {
				w.logger.Error(fmt.Errorf("failed to watch new directory %s: %w", path, err))
			}
		}
		if !logged {
			w.logger.FileChanged(path, kind)
			logged = true
		}
		w.debouncer.Add(root)
	}
}

// check is called when the debouncer flushes.
func (w *Watcher) check(ctx context.Context, roots []string) {
	if len(roots) == 0 {
		return
	}

	// Prevent overlapping checks
	w.checkMu.Lock()
	defer w.checkMu.Unlock()

	// Sort roots for consistent output
	slices.Sort(roots)
	w.logger.Checking(roots)

	results, err := w.tracker.StatusAll(ctx, roots)
	if err != nil {
		w.logger.Error(err)
		return
	}
	for _, res := range results {
		w.report(ctx, res)
	}
}

// report records res when configured to and logs it.
func (w *Watcher) report(ctx context.Context, res *incremental.Result) {
	recorded := false
	if w.config.Record && !res.UpToDate {
		if err := w.tracker.Record(ctx, res); err != nil {
			w.logger.Error(err)
		} else {
			recorded = true
		}
	}
	w.logger.Result(res, recorded)
}

// Roots returns the absolute roots being watched.
func (w *Watcher) Roots() []string { return slices.Clone(w.roots) }

// Stats returns the statistics of the current session.
func (w *Watcher) Stats() WatchStats { return w.logger.Stats() }

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}
