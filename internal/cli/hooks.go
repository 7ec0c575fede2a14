package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nikromen/pyclean/pkg/observability"
)

// reporter receives scan and removal events. It writes debug log lines with
// durations and drives the scan spinner, which must be gone before a
// package manager takes over the terminal for its own prompts.
type reporter struct {
	logger  *log.Logger
	spinner bool
	out     io.Writer

	mu      sync.Mutex
	current *Spinner
}

var (
	_ observability.ScanHooks    = (*reporter)(nil)
	_ observability.RemovalHooks = (*reporter)(nil)
)

func newReporter(logger *log.Logger, spinner bool) *reporter {
	return &reporter{logger: logger, spinner: spinner, out: os.Stderr}
}

// register installs r as the global scan and removal hooks.
func (r *reporter) register() {
	observability.SetScanHooks(r)
	observability.SetRemovalHooks(r)
}

func (r *reporter) OnListStart(ctx context.Context, manager string) {
	r.logger.Debug("listing packages", "manager", manager)
	if !r.spinner {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := "Scanning " + manager + " packages..."
	if r.current != nil {
		r.current.SetMessage(msg)
		return
	}
	r.current = newSpinnerWithContext(ctx, msg)
	r.current.w = r.out
	r.current.Start()
}

func (r *reporter) OnListComplete(_ context.Context, manager string, count int, duration time.Duration, err error) {
	if err != nil {
		r.finish(func(s *Spinner) { s.StopWithError("Scanning " + manager + " packages failed") })
		r.logger.Debug("listing failed", "manager", manager, "took", duration.Round(time.Millisecond), "err", err)
		return
	}
	r.logger.Debug("listing complete", "manager", manager, "count", count, "took", duration.Round(time.Millisecond))
}

func (r *reporter) OnResolve(_ context.Context, records, groups int) {
	r.finish(func(s *Spinner) { s.StopWithSuccess(fmt.Sprintf("Scanned %d installations", records)) })
	r.logger.Debug("resolved duplicates", "records", records, "groups", groups)
}

func (r *reporter) OnRemoveStart(_ context.Context, manager string, names []string) {
	r.stop()
	r.logger.Debug("removing packages", "manager", manager, "packages", names)
}

func (r *reporter) OnRemoveComplete(_ context.Context, manager string, names []string, duration time.Duration, err error) {
	if err != nil {
		r.logger.Debug("removal failed", "manager", manager, "packages", names, "took", duration.Round(time.Millisecond), "err", err)
		return
	}
	r.logger.Debug("removal complete", "manager", manager, "packages", names, "took", duration.Round(time.Millisecond))
}

// stop clears a running spinner.
func (r *reporter) stop() {
	r.finish((*Spinner).Stop)
}

// finish ends a running spinner with end. It does nothing when no spinner
// is running, so the status line is only printed on a terminal.
func (r *reporter) finish(end func(*Spinner)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		end(r.current)
		r.current = nil
	}
}
