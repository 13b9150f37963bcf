package runner_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/albertocavalcante/fsnap/cmd/fsnap/internal/incremental"
	"github.com/albertocavalcante/fsnap/cmd/fsnap/internal/runner"
	"github.com/albertocavalcante/fsnap/pkg/snapshot"
	"github.com/albertocavalcante/fsnap/pkg/store"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses a POSIX shell")
	}
}

func TestFind_Path(t *testing.T) {
	tmpDir := t.TempDir()
	tool := filepath.Join(tmpDir, "tool")
	if err := os.WriteFile(tool, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := runner.New()
	got, err := r.Find(tool)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got != tool {
		t.Errorf("Find() = %q, want %q", got, tool)
	}
}

func TestFind_SearchesPATH(t *testing.T) {
	skipOnWindows(t)
	tmpDir := t.TempDir()
	tool := filepath.Join(tmpDir, "fsnap-test-tool")
	if err := os.WriteFile(tool, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", tmpDir)

	got, err := runner.New().Find("fsnap-test-tool")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got != tool {
		t.Errorf("Find() = %q, want %q", got, tool)
	}
}

func TestFind_NotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := runner.New().Find("definitely-not-a-command")
	if !errors.Is(err, runner.ErrCommandNotFound) {
		t.Errorf("Find() err = %v, want ErrCommandNotFound", err)
	}
}

func TestCommand_NoArgs(t *testing.T) {
	if _, err := runner.New().Command(context.Background(), nil, nil); !errors.Is(err, runner.ErrNoCommand) {
		t.Errorf("Command(nil) err = %v, want ErrNoCommand", err)
	}
}

func TestWork_ExportsResult(t *testing.T) {
	skipOnWindows(t)
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := snapshot.NewSnapshotter(snapshot.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	tracker := incremental.NewTracker(s, store.NewMemoryStore(), incremental.TrackerOptions{})

	var stdout bytes.Buffer
	r := runner.New(runner.WithOutput(&stdout, &stdout), runner.WithEnv([]string{}))
	work := r.Work([]string{"/bin/sh", "-c", `echo "$FSNAP_ROOT $FSNAP_FIRST_RUN $FSNAP_CHANGES"`})

	_, ran, err := tracker.Run(context.Background(), root, work)
	if err != nil || !ran {
		t.Fatalf("Run = ran %v, err %v", ran, err)
	}
	// First run: root directory plus a.txt are added.
	want := root + " true 2"
	if got := strings.TrimSpace(stdout.String()); got != want {
		t.Errorf("command saw %q, want %q", got, want)
	}
}

func TestExitCode(t *testing.T) {
	skipOnWindows(t)
	if runner.ExitCode(nil) != 0 {
		t.Error("ExitCode(nil) should be 0")
	}
	if runner.ExitCode(errors.New("plain")) != 1 {
		t.Error("ExitCode(plain error) should be 1")
	}

	cmd, err := runner.New(runner.WithOutput(nil, nil)).Command(context.Background(), nil, []string{"/bin/sh", "-c", "exit 3"})
	if err != nil {
		t.Fatal(err)
	}
	if code := runner.ExitCode(cmd.Run()); code != 3 {
		t.Errorf("ExitCode() = %d, want 3", code)
	}
}
