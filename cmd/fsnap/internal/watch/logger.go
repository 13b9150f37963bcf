package watch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/albertocavalcante/fsnap/cmd/fsnap/internal/incremental"
	"github.com/albertocavalcante/fsnap/pkg/snapshot"
)

// maxListedChanges bounds the paths printed per stale root in text mode.
const maxListedChanges = 20

// Logger handles watch mode output formatting.
type Logger struct {
	writer  io.Writer
	isTTY   bool
	verbose bool
	noColor bool
	jsonOut bool

	// mu serializes writes and guards stats.
	mu    sync.Mutex
	stats WatchStats
}

// WatchStats tracks statistics for the watch session.
type WatchStats struct {
	CheckCount  int
	StaleCount  int
	RecordCount int
	ErrorCount  int
	StartTime   time.Time
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
	JSON    bool
}

// NewLogger creates a new logger with the given configuration.
func NewLogger(cfg LoggerConfig) *Logger {
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	isTTY := false
	if f, ok := writer.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}

	return &Logger{
		writer:  writer,
		isTTY:   isTTY,
		verbose: cfg.Verbose,
		noColor: cfg.NoColor,
		jsonOut: cfg.JSON,
		stats: WatchStats{
			StartTime: time.Now(),
		},
	}
}

// Ready logs the initial ready message.
func (l *Logger) Ready(roots []string, entries int) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":   "ready",
			"roots":   roots,
			"entries": entries,
		})
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.printf("fsnap: watching %d entries in %d root(s)\n", entries, len(roots))
	for _, root := range roots {
		l.printf("fsnap:   %s\n", root)
	}
	l.println("fsnap: ready")
	l.println()
}

// FileChanged logs a file change event.
func (l *Logger) FileChanged(path string, change snapshot.ChangeKind) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":  "file_changed",
			"path":   path,
			"change": string(change),
			"time":   time.Now().Format(time.RFC3339),
		})
		return
	}

	if l.verbose {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.printf("[%s] %s %s\n", l.timestamp(), l.colorize(string(change), change), path)
	}
}

// Checking logs that roots are being re-checked.
func (l *Logger) Checking(roots []string) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "checking",
			"roots": roots,
			"time":  time.Now().Format(time.RFC3339),
		})
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(roots) == 1 {
		l.printf("[%s] checking %s...\n", l.timestamp(), roots[0])
	} else {
		l.printf("[%s] checking %d roots...\n", l.timestamp(), len(roots))
	}
}

// Result logs the outcome of one check. recorded reports whether the new
// snapshot was stored.
func (l *Logger) Result(res *incremental.Result, recorded bool) {
	l.mu.Lock()
	l.stats.CheckCount++
	if !res.UpToDate {
		l.stats.StaleCount++
	}
	if recorded {
		l.stats.RecordCount++
	}
	l.mu.Unlock()

	if res.UpToDate {
		l.upToDate(res.Root)
		return
	}
	l.changes(res, recorded)
}

func (l *Logger) upToDate(root string) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "up_to_date",
			"root":  root,
			"time":  time.Now().Format(time.RFC3339),
		})
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	checkmark := l.colorize("✓", snapshot.ChangeAdded)
	l.printf("[%s] %s %s up to date\n", l.timestamp(), checkmark, root)
}

func (l *Logger) changes(res *incremental.Result, recorded bool) {
	paths := res.Changes.Paths()

	if l.jsonOut {
		changes := make([]map[string]string, len(paths))
		for i, p := range paths {
			changes[i] = map[string]string{"change": string(p.Kind), "path": p.Path}
		}
		l.writeJSON(map[string]any{
			"event":     "changes",
			"root":      res.Root,
			"first_run": res.Changes.FirstRun,
			"changes":   changes,
			"recorded":  recorded,
			"time":      time.Now().Format(time.RFC3339),
		})
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if res.Changes.FirstRun {
		l.printf("[%s] %s no recorded snapshot (%d entries)\n", l.timestamp(), res.Root, len(paths))
	} else {
		l.printf("[%s] %s changed (%d)\n", l.timestamp(), res.Root, len(paths))
		for i, p := range paths {
			if i == maxListedChanges {
				l.printf("    ... and %d more\n", len(paths)-maxListedChanges)
				break
			}
			name := p.Path
			if name == "" {
				name = "."
			}
			l.printf("    %s %s\n", l.colorize(string(p.Kind), p.Kind), name)
		}
	}
	if recorded {
		l.printf("[%s] recorded %s\n", l.timestamp(), res.Root)
	}
}

// Error logs an error.
func (l *Logger) Error(err error) {
	l.mu.Lock()
	l.stats.ErrorCount++
	l.mu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "error",
			"error": err.Error(),
			"time":  time.Now().Format(time.RFC3339),
		})
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	xmark := l.colorize("✗", snapshot.ChangeRemoved)
	l.printf("[%s] %s error: %v\n", l.timestamp(), xmark, err)
}

// Shutdown logs the shutdown message with statistics.
func (l *Logger) Shutdown() {
	stats := l.Stats()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":    "shutdown",
			"checks":   stats.CheckCount,
			"stale":    stats.StaleCount,
			"recorded": stats.RecordCount,
			"errors":   stats.ErrorCount,
			"duration": time.Since(stats.StartTime).String(),
		})
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.println()
	l.printf("fsnap: shutting down (%d checks, %d stale, %d errors)\n",
		stats.CheckCount, stats.StaleCount, stats.ErrorCount)
}

// Stats returns the current watch statistics.
func (l *Logger) Stats() WatchStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// timestamp returns the current time formatted as HH:MM:SS.
func (l *Logger) timestamp() string {
	return time.Now().Format("15:04:05")
}

// colorize applies ANSI color codes based on change kind.
func (l *Logger) colorize(s string, change snapshot.ChangeKind) string {
	if l.noColor || !l.isTTY {
		return s
	}

	var color string
	switch change {
	case snapshot.ChangeAdded:
		color = "\033[32m" // green
	case snapshot.ChangeModified:
		color = "\033[33m" // yellow
	case snapshot.ChangeRemoved:
		color = "\033[31m" // red
	default:
		return s
	}
	return color + s + "\033[0m"
}

// writeJSON writes a JSON object to the output as one line.
func (l *Logger) writeJSON(v any) {
	data, err := json.Marshal(v)
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		// Write a minimal error event so tooling knows something went wrong
		l.println(`{"event":"internal_error","error":"json marshal failed"}`)
		return
	}
	l.println(string(data))
}

// printf writes a formatted string to the writer, ignoring errors.
func (l *Logger) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(l.writer, format, args...)
}

// println writes a line to the writer, ignoring errors.
func (l *Logger) println(args ...any) {
	_, _ = fmt.Fprintln(l.writer, args...)
}
