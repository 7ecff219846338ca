// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks at
// startup to receive events about relocations, view-state cache traffic and
// API requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the engine packages stay
// free of observability frameworks.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetMoveHooks(&myMoveHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Move().OnMoveApplied(ctx, intent.LocationID, intent.ParentID, intent.SiblingIndex, time.Since(start))
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Move Hooks
// =============================================================================

// MoveHooks receives events from drop resolution and relocation.
type MoveHooks interface {
	// OnResolve records a drop resolved to a candidate target.
	OnResolve(ctx context.Context, locationID, parentID string, siblingIndex int)

	// OnMoveRejected records a move refused by the hierarchy policy or the store.
	OnMoveRejected(ctx context.Context, locationID, parentID string, err error)

	// OnMoveApplied records a move persisted by the store.
	OnMoveApplied(ctx context.Context, locationID, parentID string, siblingIndex int, duration time.Duration)
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

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnRequest records an incoming request before routing, so path is the
	// raw request path.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the response sent for a request. route is the
	// matched route pattern, such as "/moves/check".
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopMoveHooks is a no-op implementation of MoveHooks.
type NoopMoveHooks struct{}

func (NoopMoveHooks) OnResolve(context.Context, string, string, int)                    {}
func (NoopMoveHooks) OnMoveRejected(context.Context, string, string, error)             {}
func (NoopMoveHooks) OnMoveApplied(context.Context, string, string, int, time.Duration) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	moveHooks  MoveHooks  = NoopMoveHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetMoveHooks registers custom move hooks.
// This should be called once at application startup before any moves.
func SetMoveHooks(h MoveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		moveHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before serving.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Move returns the registered move hooks.
func Move() MoveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return moveHooks
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
	moveHooks = NoopMoveHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
