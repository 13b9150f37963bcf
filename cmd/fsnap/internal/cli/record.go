package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recordFlags struct {
	json bool
}

var recordCmd = &cobra.Command{
	Use:   "record [path...]",
	Short: "Record the current snapshot of each root",
	Long: `Snapshots each root and stores the result, superseding the snapshot
recorded before. Later 'fsnap status' runs compare against it.

The printed changes are relative to the snapshot that was replaced.`,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().BoolVar(&recordFlags.json, "json", false,
		"Output as JSON")

	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) (err error) {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer closeWorkspace(ws, &err)

	results, err := ws.tracker.Refresh(cmd.Context(), rootsOrDot(args)...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if recordFlags.json {
		outputs := make([]StatusOutput, len(results))
		for i, res := range results {
			outputs[i] = newStatusOutput(res)
		}
		return outputJSON(out, outputs)
	}
	for _, res := range results {
		switch {
		case res.Changes.FirstRun:
			_, _ = fmt.Fprintf(out, "recorded %s (%d entries)\n", res.Root, res.Current.Len())
		case res.UpToDate:
			_, _ = fmt.Fprintf(out, "recorded %s (unchanged)\n", res.Root)
		default:
			_, _ = fmt.Fprintf(out, "recorded %s (%d changed)\n", res.Root, res.Changes.TotalChanges())
		}
	}
	return nil
}
