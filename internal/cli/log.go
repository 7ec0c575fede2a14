// Package cli implements the pyclean command-line interface.
//
// This package wires configuration, package manager sources and the
// removal coordinator into a cobra command tree. Output is styled with
// lipgloss; logging goes to stderr through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - show: List packages installed by more than one package manager
//   - clean: Remove duplicates of one manager, or interactively one by one
//   - managers: List supported package managers and their availability
//
// # Logging
//
// All commands support --debug for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// logTimeFormat renders log timestamps as "HH:MM:SS.cs", e.g. "14:32:01.45".
const logTimeFormat = "15:04:05.00"

// newLogger creates a logger writing to w at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Level:           level,
	})
}

// progress times a scan and reports what it found.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs the formatted summary followed by the elapsed time rounded to
// the millisecond, e.g. "Found 3 duplicate packages (1.234s)".
func (p *progress) done(format string, args ...any) {
	p.logger.Infof(format+" (%s)", append(args, time.Since(p.start).Round(time.Millisecond))...)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches the command logger set up from --debug and the config.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the command logger, or log.Default() when the
// command ran without setup.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
