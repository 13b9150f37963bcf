package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/fsnap/pkg/snapshot"
)

var snapshotFlags struct {
	json   bool
	output string
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <path>",
	Short: "Print the snapshot of a path",
	Long: `Snapshots a path and prints one line per entry: type, content digest
and path relative to the root. Nothing is recorded.

The --json flag prints the serialized snapshot, and --output writes it to
a file instead. Saved snapshots can be compared with 'fsnap diff'.`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().BoolVar(&snapshotFlags.json, "json", false,
		"Output the serialized snapshot")
	snapshotCmd.Flags().StringVarP(&snapshotFlags.output, "output", "o", "",
		"Write the serialized snapshot to a file")

	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := newSnapshotter(cfg)
	if err != nil {
		return err
	}

	snap, err := s.Snapshot(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if snapshotFlags.output != "" || snapshotFlags.json {
		data, err := snapshot.Encode(snap)
		if err != nil {
			return err
		}
		data = append(data, '\n')
		if snapshotFlags.output != "" {
			return os.WriteFile(snapshotFlags.output, data, 0o644)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	out := cmd.OutOrStdout()
	for _, e := range snap.Entries() {
		rel := e.RelativePath().String()
		if rel == "" {
			rel = "."
		}
		_, _ = fmt.Fprintf(out, "%-9s %s %s\n", e.Type(), e.Content(), rel)
	}
	return nil
}
