package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/albertocavalcante/fsnap/cmd/fsnap/internal/incremental"
	"github.com/albertocavalcante/fsnap/pkg/snapshot"
)

// StatusOutput is the JSON output format for one root of fsnap status.
type StatusOutput struct {
	Root         string   `json:"root"`
	UpToDate     bool     `json:"up_to_date"`
	FirstRun     bool     `json:"first_run,omitempty"`
	Entries      int      `json:"entries"`
	AffectedDirs []string `json:"affected_dirs"`
	Added        []string `json:"added,omitempty"`
	Modified     []string `json:"modified,omitempty"`
	Removed      []string `json:"removed,omitempty"`
}

// newStatusOutput summarizes res for JSON output.
func newStatusOutput(res *incremental.Result) StatusOutput {
	out := StatusOutput{
		Root:         res.Root,
		UpToDate:     res.UpToDate,
		FirstRun:     res.Changes.FirstRun,
		AffectedDirs: res.Changes.AffectedDirs(),
	}
	if res.Current != nil {
		out.Entries = res.Current.Len()
	}
	for _, p := range res.Changes.Paths() {
		switch p.Kind {
		case snapshot.ChangeAdded:
			out.Added = append(out.Added, p.Path)
		case snapshot.ChangeModified:
			out.Modified = append(out.Modified, p.Path)
		case snapshot.ChangeRemoved:
			out.Removed = append(out.Removed, p.Path)
		}
	}
	if out.AffectedDirs == nil {
		out.AffectedDirs = []string{}
	}
	return out
}

// printStatus writes the text form of one status result.
func printStatus(w io.Writer, res *incremental.Result) {
	switch {
	case res.UpToDate:
		_, _ = fmt.Fprintf(w, "%s: up to date\n", res.Root)
	case res.Changes.FirstRun:
		_, _ = fmt.Fprintf(w, "%s: no recorded snapshot\n", res.Root)
	default:
		_, _ = fmt.Fprintf(w, "%s: %d changed\n", res.Root, res.Changes.TotalChanges())
		printChanges(w, res.Changes)
	}
}

// printChanges lists every changed path with its kind marker.
func printChanges(w io.Writer, cs *snapshot.ChangeSet) {
	for _, p := range cs.Paths() {
		name := p.Path
		if name == "" {
			name = "."
		}
		_, _ = fmt.Fprintf(w, "  %s %s\n", p.Kind, name)
	}
}

func outputJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
