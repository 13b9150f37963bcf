package cli

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/fsnap/cmd/fsnap/internal/runner"
)

var runFlags struct {
	quiet bool
}

var runCmd = &cobra.Command{
	Use:   "run [path] -- command [args...]",
	Short: "Run a command only when a root changed",
	Long: `Checks the root (the current directory when omitted) and, when it
changed since the last successful run, runs the command. After the command
succeeds a new snapshot is recorded; when it fails nothing is recorded, so
the next run tries again.

The command sees the check in its environment:

  FSNAP_ROOT       absolute root path
  FSNAP_FIRST_RUN  "true" when the root was never recorded
  FSNAP_CHANGES    number of changed paths

The exit status is the command's, or 0 when the command was skipped.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVarP(&runFlags.quiet, "quiet", "q", false,
		"Do not report skipped runs")

	rootCmd.AddCommand(runCmd)
}

// splitRunArgs separates the root from the command at "--".
func splitRunArgs(args []string, dash int) (root string, command []string, err error) {
	if dash < 0 {
		return "", nil, errors.New("missing command; use: fsnap run [path] -- command [args...]")
	}
	switch dash {
	case 0:
		root = "."
	case 1:
		root = args[0]
	default:
		return "", nil, fmt.Errorf("expected at most one path before --, got %d", dash)
	}
	command = args[dash:]
	if len(command) == 0 {
		return "", nil, runner.ErrNoCommand
	}
	return root, command, nil
}

func runRun(cmd *cobra.Command, args []string) (err error) {
	root, command, err := splitRunArgs(args, cmd.ArgsLenAtDash())
	if err != nil {
		return err
	}

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer closeWorkspace(ws, &err)

	r := runner.New(runner.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()))
	if _, err := r.Find(command[0]); err != nil {
		return err
	}

	res, ran, err := ws.tracker.Run(cmd.Context(), root, r.Work(command))
	if !ran {
		if err == nil && !runFlags.quiet {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "fsnap: %s up to date, skipping\n", res.Root)
		}
		return err
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The command reported its own failure.
		return &ExitError{Code: runner.ExitCode(err)}
	}
	return err
}
