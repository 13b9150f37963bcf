package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Supported handler formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// HandlerOptions configures the log handler.
type HandlerOptions struct {
	Level     slog.Leveler
	Format    string // FormatText or FormatJSON
	Output    io.Writer
	AddSource bool
}

// ValidateFormat rejects formats NewHandler does not know.
func ValidateFormat(format string) error {
	switch format {
	case "", FormatText, FormatJSON:
		return nil
	}
	return fmt.Errorf("unknown log format %q (want text or json)", format)
}

// NewHandler creates the handler selected by opts.Format.
// Output defaults to stderr so stdout stays free for command results.
func NewHandler(opts HandlerOptions) slog.Handler {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       opts.Level,
		AddSource:   opts.AddSource,
		ReplaceAttr: replaceLevelNames,
	}

	if opts.Format == FormatJSON {
		return slog.NewJSONHandler(opts.Output, handlerOpts)
	}
	return slog.NewTextHandler(opts.Output, handlerOpts)
}

// replaceLevelNames renders custom levels (TRACE) by name.
func replaceLevelNames(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(LevelName(level))
		}
	}
	return a
}
