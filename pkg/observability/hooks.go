// Package observability provides hooks for scan and removal instrumentation.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. The CLI registers hooks
// at startup to receive events about package manager scans and removals.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetScanHooks(&myScanHooks{})
//	    observability.SetRemovalHooks(&myRemovalHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Scan().OnListStart(ctx, "rpm")
//	// ... list packages ...
//	observability.Scan().OnListComplete(ctx, "rpm", count, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Scan Hooks
// =============================================================================

// ScanHooks receives events from package manager listings.
type ScanHooks interface {
	// OnListStart records the start of one manager's listing.
	OnListStart(ctx context.Context, manager string)

	// OnListComplete records a finished listing with the number of records.
	OnListComplete(ctx context.Context, manager string, count int, duration time.Duration, err error)

	// OnResolve records the number of duplicate groups found in a scan.
	OnResolve(ctx context.Context, records, groups int)
}

// =============================================================================
// Removal Hooks
// =============================================================================

// RemovalHooks receives events from package removals.
type RemovalHooks interface {
	// OnRemoveStart records a removal request sent to a manager.
	OnRemoveStart(ctx context.Context, manager string, names []string)

	// OnRemoveComplete records the outcome of a removal request.
	OnRemoveComplete(ctx context.Context, manager string, names []string, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopScanHooks is a no-op implementation of ScanHooks.
type NoopScanHooks struct{}

func (NoopScanHooks) OnListStart(context.Context, string)                                {}
func (NoopScanHooks) OnListComplete(context.Context, string, int, time.Duration, error) {}
func (NoopScanHooks) OnResolve(context.Context, int, int)                               {}

// NoopRemovalHooks is a no-op implementation of RemovalHooks.
type NoopRemovalHooks struct{}

func (NoopRemovalHooks) OnRemoveStart(context.Context, string, []string) {}
func (NoopRemovalHooks) OnRemoveComplete(context.Context, string, []string, time.Duration, error) {
}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	scanHooks    ScanHooks    = NoopScanHooks{}
	removalHooks RemovalHooks = NoopRemovalHooks{}
	hooksMu      sync.RWMutex
)

// SetScanHooks registers custom scan hooks.
// This should be called once at application startup before any scan.
func SetScanHooks(h ScanHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		scanHooks = h
	}
}

// SetRemovalHooks registers custom removal hooks.
// This should be called once at application startup before any removal.
func SetRemovalHooks(h RemovalHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		removalHooks = h
	}
}

// Scan returns the registered scan hooks.
func Scan() ScanHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return scanHooks
}

// Removal returns the registered removal hooks.
func Removal() RemovalHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return removalHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	scanHooks = NoopScanHooks{}
	removalHooks = NoopRemovalHooks{}
}
