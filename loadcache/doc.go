// Package loadcache provides an unbounded, read-mostly lazy loading
// dictionary: a concurrent map from keys to values produced on demand by a
// DeferredLoader, with single-flight loading and prompt caller
// cancellation.
//
// Design
//
//   - Single-flight via a two-layer deferred cell: the map (a sync.Map,
//     for the same atomic insert-or-get guarantee cache.hashIndex relies
//     on) stores cheap-to-construct *cell[V] values. A losing candidate
//     from a contended LoadOrStore is simply discarded — it never started
//     a loader. The winning cell's loader is started exactly once, via
//     sync.Once, by whichever goroutine's call to Get/TryGet/GetAsync
//     first observes it.
//
//   - Two independent cancellation scopes: the caller's ctx controls only
//     how long that caller waits — firing it returns ErrCancelled without
//     touching the cell, so a later caller (even in the same goroutine,
//     with a fresh ctx) can still observe the same loader's eventual
//     result. A separate per-cell TaskTimeout (default 30s) bounds the
//     loader's own lifetime and is never derived from any caller's ctx.
//
//   - Fault removal: if the loader errors, the cell is removed via
//     CompareAndDelete so the next caller re-triggers the loader. The
//     removal only proceeds if the map still points at that exact cell; if
//     a concurrent retry already replaced or removed it, the dictionary
//     logs one informational line and moves on — a benign race, not an
//     error.
//
//   - Preloading: Options.Initial seeds the map with already-completed
//     cells that never invoke the loader.
//
// Basic usage
//
//	d := loadcache.New[string, string](loadcache.Options[string, string]{
//	    Loader: func(ctx context.Context, k string) (string, error) {
//	        return fetch(ctx, k)
//	    },
//	})
//	v, err := d.Get(context.Background(), "key")
//
// Thread-safety
//
// All methods are safe for concurrent use. Concurrent Get/TryGet/GetAsync
// calls for a key not yet resident share exactly one DeferredLoader
// invocation.
package loadcache
