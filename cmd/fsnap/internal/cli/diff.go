package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/fsnap/pkg/snapshot"
)

var diffFlags struct {
	json     bool
	exitCode bool
}

var diffCmd = &cobra.Command{
	Use:   "diff <old.json> <new.json>",
	Short: "Compare two saved snapshots",
	Long: `Compares two snapshots written by 'fsnap snapshot --output' and lists
the paths that were added (+), modified (~) or removed (-).

Both snapshots must be of the same root. Snapshots taken with different
hash algorithms report every present entry as modified.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().BoolVar(&diffFlags.json, "json", false,
		"Output the change set as JSON")
	diffCmd.Flags().BoolVar(&diffFlags.exitCode, "exit-code", false,
		"Exit with status 1 when the snapshots differ")

	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	older, err := readSnapshot(args[0])
	if err != nil {
		return err
	}
	newer, err := readSnapshot(args[1])
	if err != nil {
		return err
	}

	cs, err := snapshot.Diff(older, newer)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if diffFlags.json {
		if err := outputJSON(out, cs); err != nil {
			return err
		}
	} else if cs.IsEmpty() {
		_, _ = fmt.Fprintln(out, "no changes")
	} else {
		_, _ = fmt.Fprintf(out, "%d changed\n", cs.TotalChanges())
		printChanges(out, cs)
	}

	if diffFlags.exitCode && !cs.IsEmpty() {
		return &ExitError{Code: 1}
	}
	return nil
}

func readSnapshot(path string) (*snapshot.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}
