// Package log is fsnap's process-wide structured logger, built on log/slog.
//
// Diagnostics always go to stderr (or the writer given to Init). stdout is
// reserved for command output: status reports, change lists and the JSON
// event stream of watch mode. Verbosity uses the -v=N scale of klog.
package log

import "log/slog"

// LevelTrace is a custom trace level, more verbose than debug.
const LevelTrace = slog.Level(-8)

// Verbosity level constants for documentation and reference.
const (
	VerbosityError = 0 // Errors only (quiet)
	VerbosityWarn  = 1 // + Warnings (unreadable entries recorded as missing)
	VerbosityInfo  = 2 // + Info (config loaded, roots checked, summaries)
	VerbosityDebug = 3 // + Debug (walk decisions, store hits and misses)
	VerbosityTrace = 4 // + Trace (per-file digests)
)

// VerbosityToLevel maps -v=N to a slog level.
func VerbosityToLevel(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelError
	case v == 1:
		return slog.LevelWarn
	case v == 2:
		return slog.LevelInfo
	case v == 3:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// LevelName returns the name for a level, including custom levels.
func LevelName(l slog.Level) string {
	if l == LevelTrace {
		return "TRACE"
	}
	return l.String()
}
