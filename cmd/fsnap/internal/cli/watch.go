package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/fsnap/cmd/fsnap/internal/watch"
)

var watchFlags struct {
	debounce int
	record   bool
	verbose  bool
	json     bool
	noColor  bool
}

var watchCmd = &cobra.Command{
	Use:   "watch [path...]",
	Short: "Watch roots and report changes as they happen",
	Long: `Watches each root for file changes and re-checks it against its
recorded snapshot once the changes settle.

With --record the new snapshot is recorded after every stale check, so
each report lists what changed since the previous one.

Example output:

  $ fsnap watch --record src

  fsnap: watching 1247 entries in 1 root(s)
  fsnap:   /path/to/src
  fsnap: ready

  [14:32:15] checking /path/to/src...
  [14:32:15] /path/to/src changed (3)
      ~ .
      ~ auth
      ~ auth/login.go
  [14:32:15] recorded /path/to/src

Press Ctrl+C to stop watching.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchFlags.debounce, "debounce", int(watch.DefaultDebounce/time.Millisecond),
		"Debounce window in milliseconds")
	watchCmd.Flags().BoolVar(&watchFlags.record, "record", false,
		"Record a new snapshot after every stale check")
	watchCmd.Flags().BoolVar(&watchFlags.verbose, "verbose", false,
		"Show file-level events")
	watchCmd.Flags().BoolVar(&watchFlags.json, "json", false,
		"Stream JSON events (for tooling integration)")
	watchCmd.Flags().BoolVar(&watchFlags.noColor, "no-color", false,
		"Disable colored output")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) (err error) {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer closeWorkspace(ws, &err)

	// Setup signal handling for graceful shutdown
	// Include SIGHUP to handle terminal hangup
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	w, err := watch.New(watch.Config{
		Roots:    rootsOrDot(args),
		Debounce: time.Duration(watchFlags.debounce) * time.Millisecond,
		Record:   watchFlags.record,
		Verbose:  watchFlags.verbose,
		NoColor:  watchFlags.noColor,
		JSON:     watchFlags.json,
		Writer:   cmd.OutOrStdout(),
	}, ws.tracker)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	return w.Run(ctx)
}
