package log

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
)

var (
	logger atomic.Pointer[slog.Logger]
	level  = new(slog.LevelVar)
)

func init() {
	// Library users that never call Init still see unreadable-entry warnings.
	level.Set(VerbosityToLevel(VerbosityWarn))
	logger.Store(slog.New(NewHandler(HandlerOptions{Level: level, Format: FormatText})))
}

// Options selects how fsnap writes diagnostics.
type Options struct {
	// Verbosity follows the -v=N scale of the Verbosity constants.
	Verbosity int
	// Format is FormatText or FormatJSON. Empty means text.
	Format string
	// Output defaults to stderr; stdout carries command results and watch
	// events and must stay parseable.
	Output io.Writer
}

// Init replaces the process logger. The CLI calls it once for the flags and
// again after fsnap.toml is merged. An unknown format leaves the current
// logger in place.
func Init(opts Options) error {
	if err := ValidateFormat(opts.Format); err != nil {
		return err
	}
	level.Set(VerbosityToLevel(opts.Verbosity))
	// Source locations only at trace verbosity.
	l := slog.New(NewHandler(HandlerOptions{
		Level:     level,
		Format:    opts.Format,
		Output:    opts.Output,
		AddSource: opts.Verbosity >= VerbosityTrace,
	}))
	logger.Store(l)
	slog.SetDefault(l)
	return nil
}

// Enabled reports whether records at v would be written. Callers use it to
// skip building expensive attributes, e.g. per-file digests.
func Enabled(v int) bool {
	return level.Level() <= VerbosityToLevel(v)
}

// Trace logs at trace level (v=4).
func Trace(msg string, args ...any) {
	logger.Load().Log(context.Background(), LevelTrace, msg, args...)
}

// Component returns a logger tagged with a subsystem name such as
// "snapshot", "store" or "watch".
func Component(name string) *slog.Logger {
	return logger.Load().With("component", name)
}

// ForRoot is Component with the snapshot root attached, for subsystems that
// work on one root at a time.
func ForRoot(component, root string) *slog.Logger {
	return Component(component).With("root", root)
}
