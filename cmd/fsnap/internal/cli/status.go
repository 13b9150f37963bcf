package cli

import (
	"github.com/spf13/cobra"
)

var statusFlags struct {
	json     bool
	exitCode bool
}

var statusCmd = &cobra.Command{
	Use:   "status [path...]",
	Short: "Show which roots changed since their last record",
	Long: `Snapshots each root and compares it with the snapshot recorded by
'fsnap record'. Nothing is written.

A root that was never recorded is reported as having no recorded snapshot
and is never up to date. Without arguments the current directory is checked.

The --json flag outputs one object per root for scripting.
The --exit-code flag exits with status 1 when any root is stale.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusFlags.json, "json", false,
		"Output as JSON")
	statusCmd.Flags().BoolVar(&statusFlags.exitCode, "exit-code", false,
		"Exit with status 1 when any root is stale")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) (err error) {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer closeWorkspace(ws, &err)

	results, err := ws.tracker.StatusAll(cmd.Context(), rootsOrDot(args))
	if err != nil {
		return err
	}

	stale := false
	for _, res := range results {
		stale = stale || !res.UpToDate
	}

	out := cmd.OutOrStdout()
	if statusFlags.json {
		outputs := make([]StatusOutput, len(results))
		for i, res := range results {
			outputs[i] = newStatusOutput(res)
		}
		if err := outputJSON(out, outputs); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			printStatus(out, res)
		}
	}

	if stale && statusFlags.exitCode {
		return &ExitError{Code: 1}
	}
	return nil
}
