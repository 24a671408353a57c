// Package cli implements the panegrid command-line interface.
//
// The CLI wraps the placement engine, the window registry and the layout
// store. Commands are built with cobra; output is styled with lipgloss and
// diagnostics go through charmbracelet/log on stderr.
//
// # Commands
//
//   - place, rank: query the placement engine directly
//   - window: register, update, remove and list windows of a layout
//   - render: draw a layout as text, DOT, SVG, PNG or PDF
//   - serve: run the HTTP API
//   - tui: browse and edit a layout interactively
//   - config: show the effective configuration
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// travels in the command context; see loggerFromContext.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger that writes timestamps as "15:04:05.00".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long an operation took.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Rendered svg (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a copy of ctx carrying l.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger in ctx, or log.Default() if there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
