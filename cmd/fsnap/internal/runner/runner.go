// Package runner executes the command guarded by `fsnap run`.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/albertocavalcante/fsnap/cmd/fsnap/internal/incremental"
	"github.com/albertocavalcante/fsnap/internal/log"
)

// ErrCommandNotFound is returned when the command cannot be located.
var ErrCommandNotFound = errors.New("command not found")

// ErrNoCommand is returned when no command was given.
var ErrNoCommand = errors.New("no command given")

// Environment variables describing the check that triggered the command.
const (
	EnvRoot     = "FSNAP_ROOT"
	EnvFirstRun = "FSNAP_FIRST_RUN"
	EnvChanges  = "FSNAP_CHANGES"
)

// Runner handles finding and executing a command.
type Runner struct {
	dir    string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	env    []string
}

// Option configures a Runner.
type Option func(*Runner)

// WithDir sets the working directory of the command.
func WithDir(dir string) Option {
	return func(r *Runner) {
		r.dir = dir
	}
}

// WithOutput redirects the command's stdout and stderr.
// Used primarily for testing.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithEnv replaces the inherited environment.
func WithEnv(env []string) Option {
	return func(r *Runner) {
		r.env = env
	}
}

// New creates a new Runner with the given options.
func New(opts ...Option) *Runner {
	r := &Runner{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Find resolves name the way a shell would: paths are used as given,
// bare names are looked up on PATH.
func (r *Runner) Find(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrCommandNotFound, name)
	}
	return path, nil
}

// Command builds the command for args, describing res in its environment.
func (r *Runner) Command(ctx context.Context, res *incremental.Result, args []string) (*exec.Cmd, error) {
	if len(args) == 0 {
		return nil, ErrNoCommand
	}
	path, err := r.Find(args[0])
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, path, args[1:]...)
	cmd.Dir = r.dir
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	env := r.env
	if env == nil {
		env = os.Environ()
	}
	if res != nil {
		env = append(env,
			EnvRoot+"="+res.Root,
			EnvFirstRun+"="+strconv.FormatBool(res.Changes.FirstRun),
			EnvChanges+"="+strconv.Itoa(res.Changes.TotalChanges()),
		)
	}
	cmd.Env = env
	return cmd, nil
}

// Work returns an incremental.Work that runs args and returns after it completes.
func (r *Runner) Work(args []string) incremental.Work {
	return func(ctx context.Context, res *incremental.Result) error {
		cmd, err := r.Command(ctx, res, args)
		if err != nil {
			return err
		}
		log.ForRoot("runner", res.Root).Info("running", "command", cmd.Path, "changes", res.Changes.TotalChanges())
		return cmd.Run()
	}
}

// ExitCode extracts the exit status from an error returned by Work.
// It returns 0 for nil and 1 for errors that carry no status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode()
	}
	return 1
}
