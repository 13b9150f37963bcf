package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/fsnap/cmd/fsnap/internal/incremental"
	"github.com/albertocavalcante/fsnap/internal/log"
	"github.com/albertocavalcante/fsnap/pkg/config"
	"github.com/albertocavalcante/fsnap/pkg/snapshot"
	"github.com/albertocavalcante/fsnap/pkg/store"
)

// workspace bundles what a command needs to check and record roots.
type workspace struct {
	cfg         *config.Config
	snapshotter *snapshot.Snapshotter
	store       store.Store
	tracker     *incremental.Tracker
}

// loadConfig loads the config layers and applies the global flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if globalFlags.config != "" {
		var err error
		if cfg, err = config.LoadFile(globalFlags.config); err != nil {
			return nil, err
		}
	} else {
		cfg = config.Load()
	}

	flags := cmd.Flags()
	if flags.Changed("hash") {
		cfg.Hash.Algorithm = globalFlags.hash
	}
	if flags.Changed("unreadable") {
		cfg.Walk.Unreadable = globalFlags.unreadable
	}
	if flags.Changed("no-follow") {
		follow := !globalFlags.noFollow
		cfg.Walk.FollowSymlinks = &follow
	}
	if flags.Changed("ignore") {
		cfg.Walk.Ignore = append(cfg.Walk.Ignore, globalFlags.ignore...)
	}
	if flags.Changed("store") {
		cfg.Store.Backend = globalFlags.store
	}
	if flags.Changed("store-path") {
		cfg.Store.Path = globalFlags.storePath
	}
	if flags.Changed("jobs") {
		cfg.Run.Jobs = globalFlags.jobs
	}
	if flags.Changed("verbosity") {
		v := globalFlags.verbosity
		cfg.Log.Verbosity = &v
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = globalFlags.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	verbosity := log.VerbosityWarn
	if cfg.Log.Verbosity != nil {
		verbosity = *cfg.Log.Verbosity
	}
	if err := log.Init(log.Options{Verbosity: verbosity, Format: cfg.Log.Format}); err != nil {
		return nil, err
	}
	log.Component("cli").Debug("configuration loaded",
		"hash", cfg.Hash.Algorithm,
		"store", cfg.Store.Backend,
		"store_path", cfg.Store.Path,
		"jobs", cfg.Run.Jobs)
	return cfg, nil
}

// newSnapshotter builds the snapshotter described by cfg. The store
// directory is never part of a snapshot.
func newSnapshotter(cfg *config.Config) (*snapshot.Snapshotter, error) {
	opts, err := cfg.SnapshotOptions()
	if err != nil {
		return nil, err
	}
	if cfg.Store.Backend != config.BackendMemory && cfg.Store.Path != "" {
		opts.Exclude = append(opts.Exclude, cfg.Store.Path)
	}
	return snapshot.NewSnapshotter(opts)
}

// openWorkspace loads configuration and opens the snapshot store.
// The caller must Close the workspace.
func openWorkspace(cmd *cobra.Command) (*workspace, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	s, err := newSnapshotter(cfg)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	return &workspace{
		cfg:         cfg,
		snapshotter: s,
		store:       st,
		tracker:     incremental.NewTracker(s, st, incremental.TrackerOptions{Jobs: cfg.Run.Jobs}),
	}, nil
}

// Close releases the store.
func (w *workspace) Close() error {
	return w.store.Close()
}

// closeWorkspace closes w and joins any close error into err.
func closeWorkspace(w *workspace, err *error) {
	if cerr := w.Close(); cerr != nil {
		*err = errors.Join(*err, cerr)
	}
}

// rootsOrDot returns args, or the current directory when there are none.
func rootsOrDot(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}
