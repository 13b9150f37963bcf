package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var forgetFlags struct {
	all bool
}

var forgetCmd = &cobra.Command{
	Use:   "forget [path...]",
	Short: "Delete recorded snapshots",
	Long: `Deletes the recorded snapshot of each root, so the next status reports
it as never recorded. --all deletes every recorded snapshot.`,
	RunE: runForget,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List roots with a recorded snapshot",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	forgetCmd.Flags().BoolVar(&forgetFlags.all, "all", false,
		"Forget every recorded root")

	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(listCmd)
}

func runForget(cmd *cobra.Command, args []string) (err error) {
	if forgetFlags.all == (len(args) > 0) {
		return errors.New("forget needs either paths or --all")
	}

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer closeWorkspace(ws, &err)

	roots := args
	if forgetFlags.all {
		if roots, err = ws.tracker.Roots(cmd.Context()); err != nil {
			return err
		}
	}
	if err := ws.tracker.Forget(cmd.Context(), roots...); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "forgot %d root(s)\n", len(roots))
	return nil
}

func runList(cmd *cobra.Command, _ []string) (err error) {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer closeWorkspace(ws, &err)

	roots, err := ws.tracker.Roots(cmd.Context())
	if err != nil {
		return err
	}
	for _, root := range roots {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), root)
	}
	return nil
}
