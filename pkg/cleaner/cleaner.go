// Package cleaner coordinates duplicate detection and removal across the
// active package manager sources.
//
// A [Cleaner] scans every active source once per top-level operation and
// works on that snapshot until the operation ends; the system is never
// re-queried mid-session. Removal calls are issued one at a time, never
// concurrently against the same manager.
package cleaner

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nikromen/pyclean/pkg/dupes"
	"github.com/nikromen/pyclean/pkg/manager"
	"github.com/nikromen/pyclean/pkg/observability"
)

// Cleaner is the removal coordinator.
type Cleaner struct {
	sources []manager.Source
	logger  *log.Logger
}

// New creates a Cleaner over the sources that exist on this host. Sources
// whose Exists reports false are dropped silently for the whole run. The
// order of sources is the order their records are reported in.
func New(sources []manager.Source, logger *log.Logger) *Cleaner {
	if logger == nil {
		logger = log.Default()
	}
	c := &Cleaner{logger: logger}
	for _, src := range sources {
		if src == nil {
			continue
		}
		if !src.Exists() {
			logger.Debug("package manager not found, skipping", "manager", src.Kind())
			continue
		}
		c.sources = append(c.sources, src)
	}
	return c
}

// Sources returns the active sources in scan order.
func (c *Cleaner) Sources() []manager.Source {
	return append([]manager.Source(nil), c.sources...)
}

// Source returns the active source for kind.
func (c *Cleaner) Source(kind manager.Kind) (manager.Source, bool) {
	for _, src := range c.sources {
		if src.Kind() == kind {
			return src, true
		}
	}
	return nil, false
}

// Records lists every active source in order and concatenates the results.
// A failing source aborts the scan.
func (c *Cleaner) Records(ctx context.Context) ([]manager.Record, error) {
	logger := c.logger.With("scan", uuid.NewString()[:8])

	var all []manager.Record
	for _, src := range c.sources {
		kind := src.Kind().String()
		observability.Scan().OnListStart(ctx, kind)
		start := time.Now()

		records, err := src.List(ctx)

		observability.Scan().OnListComplete(ctx, kind, len(records), time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("listing %s packages: %w", kind, err)
		}
		logger.Debug("listed packages", "manager", kind, "count", len(records), "took", time.Since(start).Round(time.Millisecond))
		all = append(all, records...)
	}
	return all, nil
}

// Duplicates scans all active sources and resolves the duplicate groups.
func (c *Cleaner) Duplicates(ctx context.Context) (dupes.Duplicates, error) {
	records, err := c.Records(ctx)
	if err != nil {
		return dupes.Duplicates{}, err
	}
	d := dupes.Resolve(records)
	observability.Scan().OnResolve(ctx, len(records), d.Len())
	return d, nil
}

// Clean removes, in one call to the matching source, every package of kind
// that belongs to a duplicate group. Packages installed by a single manager
// are never touched. It returns the manager-native names it asked the
// source to remove; an empty result means there was nothing to do. A kind
// with no active source is not an error and removes nothing.
func (c *Cleaner) Clean(ctx context.Context, kind manager.Kind, autoRemove bool) ([]string, error) {
	src, ok := c.Source(kind)
	if !ok {
		c.logger.Info("Package manager not available, nothing to remove", "manager", kind)
		return nil, nil
	}

	d, err := c.Duplicates(ctx)
	if err != nil {
		return nil, err
	}

	names := d.PackageNames(kind)
	if len(names) == 0 {
		c.logger.Info("No duplicates to remove", "manager", kind)
		return nil, nil
	}

	if err := c.remove(ctx, src, names, autoRemove); err != nil {
		return nil, err
	}
	return names, nil
}

func (c *Cleaner) remove(ctx context.Context, src manager.Source, names []string, autoRemove bool) error {
	kind := src.Kind().String()
	observability.Removal().OnRemoveStart(ctx, kind, names)
	start := time.Now()

	err := src.Remove(ctx, names, autoRemove)

	observability.Removal().OnRemoveComplete(ctx, kind, names, time.Since(start), err)
	return err
}
