// Package cli implements the placetree command-line interface.
//
// Commands read the location store named by the configuration (see
// internal/config) or by --store/--backend, and keep the tree view state in
// the configured cache. The CLI is built using cobra and logs through
// charmbracelet/log.
//
// # Commands
//
//   - tree, expand, collapse: print the hierarchy and manage the saved view
//   - check, move: validate and apply a relocation
//   - drop: replay a drag-and-drop gesture
//   - validate, import, export: snapshot files and diagrams
//   - browse: interactive tree with keyboard moves
//   - serve: the HTTP API
//   - cache: manage saved view state
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging; otherwise the
// configured log.level applies.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
// The returned progress should call done when the operation completes.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// The duration is rounded to the nearest millisecond.
// Example output: "Imported 42 locations (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
