package cache

import (
	"sync"
	"sync/atomic"
)

// hashIndex is the single process-level "does K exist" authority for a
// cache instance. It wraps sync.Map — already lock-striped internally and
// offering the atomic insert-or-get (LoadOrStore) correctness depends on —
// plus a size counter, because sync.Map has no O(1) Len.
//
// See DESIGN.md for why this is a deliberate stdlib choice rather than a
// third-party concurrent map: no such library appears anywhere in the
// retrieval pack with an API we could ground calls on.
type hashIndex[K comparable, V any] struct {
	m    sync.Map
	size atomic.Int64
}

func newHashIndex[K comparable, V any]() *hashIndex[K, V] {
	return &hashIndex[K, V]{}
}

// Load returns the entry stored for key, if any.
func (h *hashIndex[K, V]) Load(key K) (*entry[K, V], bool) {
	v, ok := h.m.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*entry[K, V]), true
}

// LoadOrStore atomically installs candidate under key if absent, or returns
// the entry that is already there. loaded reports which happened.
func (h *hashIndex[K, V]) LoadOrStore(key K, candidate *entry[K, V]) (actual *entry[K, V], loaded bool) {
	v, loaded := h.m.LoadOrStore(key, candidate)
	if !loaded {
		h.size.Add(1)
	}
	return v.(*entry[K, V]), loaded
}

// Store unconditionally overwrites the entry for key. The key is expected
// to already be present; size is unaffected. (replace uses CompareAndSwap
// instead.)
func (h *hashIndex[K, V]) Store(key K, e *entry[K, V]) {
	h.m.Store(key, e)
}

// CompareAndSwap replaces the entry for key with next only if it still
// maps to old, reporting whether the swap happened. Used by replace to
// make the put-collision race decide a single winner: a loser's freshly
// built entry is discarded before ever being linked into a shard list.
func (h *hashIndex[K, V]) CompareAndSwap(key K, old, next *entry[K, V]) bool {
	return h.m.CompareAndSwap(key, old, next)
}

// CompareAndDelete removes key only if it still maps to old, so a removal
// never disturbs an entry installed by a concurrent winner. Reports whether
// the deletion happened.
func (h *hashIndex[K, V]) CompareAndDelete(key K, old *entry[K, V]) bool {
	deleted := h.m.CompareAndDelete(key, old)
	if deleted {
		h.size.Add(-1)
	}
	return deleted
}

// Len returns the approximate number of resident keys (may be transiently
// stale relative to concurrent inserts/trims).
func (h *hashIndex[K, V]) Len() int64 { return h.size.Load() }

// Clear drops every entry and resets the size counter, used by Cache.Reset.
func (h *hashIndex[K, V]) Clear() {
	h.m.Clear()
	h.size.Store(0)
}

// Range calls fn for every resident key; fn returning false stops iteration
// early. Used for best-effort snapshots (not part of the LRU's public API,
// but kept for parity with the loading dictionary's Keys()).
func (h *hashIndex[K, V]) Range(fn func(key K, e *entry[K, V]) bool) {
	h.m.Range(func(k, v any) bool {
		return fn(k.(K), v.(*entry[K, V]))
	})
}
