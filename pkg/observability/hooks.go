// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about generation runs, repair cycles, cache operations, and
// API calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRepairHooks(&myRepairHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Repair().OnRenderStart(ctx, kind, attempt)
//	// ... compile markup ...
//	observability.Repair().OnRenderComplete(ctx, kind, attempt, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Repair Loop Hooks
// =============================================================================

// RepairHooks receives events from the repair loop engine.
type RepairHooks interface {
	// Render events; attempt is the zero-based repair attempt index.
	OnRenderStart(ctx context.Context, kind string, attempt int)
	OnRenderComplete(ctx context.Context, kind string, attempt int, duration time.Duration, err error)

	// Inspection events; page is 1-based.
	OnInspectStart(ctx context.Context, kind string, attempt, page int)
	OnInspectComplete(ctx context.Context, kind string, attempt, page int, fit bool, duration time.Duration)

	// OnRepairAdopted records that a suggested repair replaced the
	// current document for the next cycle.
	OnRepairAdopted(ctx context.Context, kind string, attempt int)

	// OnSessionEnd records the terminal state of a repair session.
	OnSessionEnd(ctx context.Context, kind string, attempts int, reason string)
}

// =============================================================================
// Completion Hooks
// =============================================================================

// CompletionHooks receives events from model completion calls.
type CompletionHooks interface {
	// OnCompletionStart records an outgoing completion request.
	OnCompletionStart(ctx context.Context, tier string)

	// OnCompletionComplete records a finished completion request.
	OnCompletionComplete(ctx context.Context, tier string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRepairHooks is a no-op implementation of RepairHooks.
type NoopRepairHooks struct{}

func (NoopRepairHooks) OnRenderStart(context.Context, string, int) {}
func (NoopRepairHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopRepairHooks) OnInspectStart(context.Context, string, int, int) {}
func (NoopRepairHooks) OnInspectComplete(context.Context, string, int, int, bool, time.Duration) {
}
func (NoopRepairHooks) OnRepairAdopted(context.Context, string, int)      {}
func (NoopRepairHooks) OnSessionEnd(context.Context, string, int, string) {}

// NoopCompletionHooks is a no-op implementation of CompletionHooks.
type NoopCompletionHooks struct{}

func (NoopCompletionHooks) OnCompletionStart(context.Context, string)                          {}
func (NoopCompletionHooks) OnCompletionComplete(context.Context, string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	repairHooks     RepairHooks     = NoopRepairHooks{}
	completionHooks CompletionHooks = NoopCompletionHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	httpHooks       HTTPHooks       = NoopHTTPHooks{}
	hooksMu         sync.RWMutex
)

// SetRepairHooks registers custom repair loop hooks.
// This should be called once at application startup before any sessions run.
func SetRepairHooks(h RepairHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		repairHooks = h
	}
}

// SetCompletionHooks registers custom completion hooks.
func SetCompletionHooks(h CompletionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		completionHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Repair returns the registered repair loop hooks.
func Repair() RepairHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return repairHooks
}

// Completion returns the registered completion hooks.
func Completion() CompletionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return completionHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	repairHooks = NoopRepairHooks{}
	completionHooks = NoopCompletionHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
