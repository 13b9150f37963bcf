// Package cli implements the fsnap command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/fsnap/internal/log"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// globalFlags holds persistent flags that apply to all commands
var globalFlags struct {
	verbosity  int
	logFormat  string
	config     string
	store      string
	storePath  string
	hash       string
	unreadable string
	noFollow   bool
	ignore     []string
	jobs       int
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fsnap",
	Short: "Snapshot directory trees and detect changes",
	Long: `fsnap records content-addressed snapshots of files and directories
and tells you whether anything changed since the last recorded snapshot.

Use it to skip work whose inputs are unchanged:

  fsnap status src/           # what changed since the last record?
  fsnap record src/           # remember the current state
  fsnap run src/ -- make all  # run make only when src/ changed`,
	SilenceErrors: true,
	SilenceUsage:  true,
	// Default behavior: show help
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "fsnap %s (%s)\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	// Global flags (persistent across all commands)
	flags := rootCmd.PersistentFlags()
	flags.IntVarP(&globalFlags.verbosity, "verbosity", "v", log.VerbosityWarn,
		"Verbosity level (0=error, 1=warn, 2=info, 3=debug, 4=trace)")
	flags.StringVar(&globalFlags.logFormat, "log-format", log.FormatText,
		"Log format (text, json)")
	flags.StringVar(&globalFlags.config, "config", "",
		"Config file to use instead of the global and project config files")
	flags.StringVar(&globalFlags.store, "store", "",
		"Snapshot store backend (json, sqlite, memory)")
	flags.StringVar(&globalFlags.storePath, "store-path", "",
		"Directory holding recorded snapshots (default .fsnap)")
	flags.StringVar(&globalFlags.hash, "hash", "",
		"Content digest algorithm (sha256, xxh3, xxhash)")
	flags.StringVar(&globalFlags.unreadable, "unreadable", "",
		"What to do with unreadable entries (missing, fail)")
	flags.BoolVar(&globalFlags.noFollow, "no-follow", false,
		"Do not follow symbolic links")
	flags.StringSliceVar(&globalFlags.ignore, "ignore", nil,
		"Glob patterns to leave out of snapshots (repeatable)")
	flags.IntVarP(&globalFlags.jobs, "jobs", "j", 0,
		"Number of roots snapshotted in parallel (default one per CPU)")

	// Hook to apply flags before command runs
	cobra.OnInitialize(initLogging)
}

// initLogging applies CLI flags to the logger.
// This runs after flags are parsed but before command execution; config
// file log settings are applied later by loadConfig, which also reports an
// invalid --log-format.
func initLogging() {
	if err := log.Init(log.Options{Verbosity: globalFlags.verbosity, Format: globalFlags.logFormat}); err != nil {
		_ = log.Init(log.Options{Verbosity: globalFlags.verbosity})
	}
}

// ExitError carries a process exit code out of a command.
// A nil Err exits quietly.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute runs the root command.
func Execute() {
	os.Exit(run(os.Args[1:]))
}

// run executes the root command with args and returns the exit code.
func run(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			_, _ = fmt.Fprintln(rootCmd.ErrOrStderr(), "fsnap:", exitErr.Err)
		}
		return exitErr.Code
	}
	_, _ = fmt.Fprintln(rootCmd.ErrOrStderr(), "fsnap:", err)
	return 1
}

// RootCmd returns the root command for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}
