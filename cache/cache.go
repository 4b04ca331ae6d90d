package cache

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/corecache/shardlru/internal/singleflight"
	"github.com/corecache/shardlru/internal/util"
)

// cache is a sharded, concurrency-optimized LRU/TLRU store. All methods are
// safe for concurrent use by multiple goroutines.
//
// This type keeps no per-shard map: key lookup is the single global
// hashIndex, and shards hold only recency lists. Shard assignment for a new
// entry is randomized at insert time rather than derived from hashing the
// key, which is what lets a replace relocate an entry to a different shard
// without disturbing the index.
type cache[K comparable, V any] struct {
	capacity int64
	shards   []*shard[K, V]
	index    *hashIndex[K, V]
	closed   atomic.Bool

	opt Options[K, V]

	requests util.PaddedAtomicInt64
	misses   util.PaddedAtomicInt64

	// sf coalesces concurrent GetOrLoad misses for the same key so
	// Options.Loader runs at most once per miss episode.
	sf singleflight.Group[K, V]
}

// New constructs a cache with the provided Options. Defaults:
//   - Shards <= 0   -> runtime.GOMAXPROCS(0)
//   - nil Metrics   -> NoopMetrics
//   - ItemLifetime 0 -> TLRU disabled
func New[K comparable, V any](opt Options[K, V]) Cache[K, V] {
	if opt.Capacity <= 0 {
		panic("cache: Capacity must be > 0")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}

	sh := opt.Shards
	if sh <= 0 {
		sh = util.ReasonableShardCount()
	}

	shards := make([]*shard[K, V], sh)
	for i := range shards {
		shards[i] = &shard[K, V]{}
	}

	return &cache[K, V]{
		capacity: int64(opt.Capacity),
		shards:   shards,
		index:    newHashIndex[K, V](),
		opt:      opt,
	}
}

// ---- Cache[K,V] implementation ----

// Add inserts k→v only if k is absent. Never updates or promotes on a
// collision.
func (c *cache[K, V]) Add(k K, v V) bool {
	if c.closed.Load() {
		return false
	}
	sh := c.randomShard()
	cand := &entry[K, V]{key: k, val: v, exp: c.defaultDeadline(), shard: sh}
	_, loaded := c.index.LoadOrStore(k, cand)
	if loaded {
		return false
	}
	c.linkNew(sh, cand)
	return true
}

// Set inserts or updates k→v per Options.UpdateExisting.
func (c *cache[K, V]) Set(k K, v V) {
	c.put(k, v, c.defaultDeadline())
}

// SetWithTTL inserts or updates k→v with a per-key relative TTL.
func (c *cache[K, V]) SetWithTTL(k K, v V, ttl time.Duration) {
	c.put(k, v, c.deadline(ttl))
}

func (c *cache[K, V]) put(k K, v V, deadline int64) {
	if c.closed.Load() {
		return
	}
	sh := c.randomShard()
	cand := &entry[K, V]{key: k, val: v, exp: deadline, shard: sh}

	actual, loaded := c.index.LoadOrStore(k, cand)
	if !loaded {
		c.linkNew(sh, cand)
		return
	}

	if !c.opt.UpdateExisting {
		actual.shard.promote(actual)
		return
	}
	c.replace(k, actual, v, deadline)
}

// linkNew publishes a freshly-won candidate into its shard's list and then
// enforces capacity. Requires cand to already be the value LoadOrStore (or
// CompareAndSwap, for a replace) installed in the index.
//
// The pending->linked transition happens under sh.mu — the same lock
// entry.retire takes — so a Remove/expire racing to retire cand before
// this call gets the lock always wins outright: linkNew then finds cand
// already marked dead and returns without ever linking it, instead of
// publishing a node that is live in a shard list but already gone from the
// index.
func (c *cache[K, V]) linkNew(sh *shard[K, V], cand *entry[K, V]) {
	sh.mu.Lock()
	if entryState(cand.state.Load()) != entryPending {
		sh.mu.Unlock()
		return
	}
	cand.state.Store(int32(entryLinked))
	sh.pushFront(cand)
	sh.mu.Unlock()
	c.enforceCapacity(sh)
	c.reportSize()
}

// replace implements the UpdateExisting=true put-collision policy: old is
// unlinked from its owning shard and a brand-new entry takes its place in
// the index, landing in a freshly (and independently) chosen shard — a
// replace is not required to preserve shard assignment.
//
// The index swap is a compare-and-swap against the exact old pointer so
// that two concurrent replacers of the same key cannot both "win": the
// loser's freshly built entry is discarded before it is ever linked into
// any shard list, avoiding an orphaned node that capacity accounting would
// never see.
func (c *cache[K, V]) replace(k K, old *entry[K, V], v V, deadline int64) {
	if old.key != k {
		panic(&InvariantViolationError{Reason: "replace attempted across distinct keys"})
	}
	newSh := c.randomShard()
	next := &entry[K, V]{key: k, val: v, exp: deadline, shard: newSh}

	if !c.index.CompareAndSwap(k, old, next) {
		// Lost the race: someone else already replaced or removed k.
		// next is simply dropped — it was never linked anywhere.
		return
	}
	old.retire()
	c.linkNew(newSh, next)
}

// Get returns the value for k and a presence flag, promoting on hit.
func (c *cache[K, V]) Get(k K) (V, bool) {
	var zero V
	if c.closed.Load() {
		return zero, false
	}
	c.requests.Add(1)

	e, ok := c.index.Load(k)
	if !ok || entryState(e.state.Load()) != entryLinked {
		c.recordMiss()
		return zero, false
	}
	if c.expired(e) {
		c.expire(e)
		c.recordMiss()
		return zero, false
	}

	e.shard.promote(e)
	c.opt.Metrics.Hit()
	return e.val, true
}

// Remove deletes k if present and returns true on success.
//
// e.retire() is called unconditionally before the index delete, even
// though Remove may not be the one that ends up performing it: retiring
// first guarantees e can never still be (or become) linked into a shard's
// list by the time it is gone from the index, regardless of whether e was
// already linked, still pending a concurrent linkNew/replace, or already
// retired by a racing evictor.
func (c *cache[K, V]) Remove(k K) bool {
	if c.closed.Load() {
		return false
	}
	e, ok := c.index.Load(k)
	if !ok {
		return false
	}
	e.retire()
	deleted := c.index.CompareAndDelete(k, e)
	if deleted {
		c.reportSize()
	}
	return deleted
}

// Len returns the approximate number of resident entries.
func (c *cache[K, V]) Len() int { return int(c.index.Len()) }

// Reset clears all entries and counters. Shard locks are taken in slice
// order (a fixed, global order) to avoid any possibility of deadlock.
func (c *cache[K, V]) Reset() {
	for _, sh := range c.shards {
		sh.reset()
	}
	c.index.Clear()
	c.requests.Store(0)
	c.misses.Store(0)
	c.opt.Metrics.Size(0)
}

// Stats returns lifetime request/miss counts and the derived miss ratio.
func (c *cache[K, V]) Stats() (requests, misses uint64, missRatio float64) {
	req := uint64(c.requests.Load())
	mis := uint64(c.misses.Load())
	if req == 0 {
		return req, mis, 0
	}
	return req, mis, float64(mis) / float64(req)
}

// Close marks the cache closed; subsequent mutating calls are no-ops.
func (c *cache[K, V]) Close() error {
	c.closed.Store(true)
	return nil
}

// GetOrLoad returns the value for k, loading it via Options.Loader on a
// miss, coalescing concurrent loads for the same key.
func (c *cache[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	if v, ok := c.Get(k); ok {
		return v, nil
	}
	if c.opt.Loader == nil {
		var zero V
		return zero, ErrNoLoader
	}
	return c.sf.Do(ctx, k, func() (V, error) {
		if v, ok := c.Get(k); ok {
			return v, nil
		}
		v, err := c.opt.Loader(ctx, k)
		if err == nil {
			c.Set(k, v)
		}
		return v, err
	})
}

// Warm eagerly populates the cache for keys not already resident.
func (c *cache[K, V]) Warm(ctx context.Context, keys []K) error {
	if c.opt.Loader == nil {
		return ErrNoLoader
	}
	for _, k := range keys {
		if _, ok := c.Get(k); ok {
			continue
		}
		v, err := c.opt.Loader(ctx, k)
		if err != nil {
			return err
		}
		c.Set(k, v)
	}
	return nil
}

// ---- internals ----

// randomShard picks a shard uniformly at random using math/rand/v2's
// package-level generator, which (Go >= 1.22) draws from a per-P source
// with no shared mutex, avoiding the contention a single mutex-protected
// generator would reintroduce across shards.
func (c *cache[K, V]) randomShard() *shard[K, V] {
	n := len(c.shards)
	if n == 1 {
		return c.shards[0]
	}
	return c.shards[rand.IntN(n)]
}

// enforceCapacity trims exactly one entry — the tail of sh, the shard that
// just grew — if the global index has grown past capacity. This is a
// deliberate sharding approximation: the victim is not necessarily the
// cache-wide least-recently-used entry, only sh's.
func (c *cache[K, V]) enforceCapacity(sh *shard[K, V]) {
	if c.index.Len() <= c.capacity {
		return
	}
	victim := sh.trimBack()
	if victim == nil {
		return
	}
	if c.index.CompareAndDelete(victim.key, victim) {
		c.opt.Metrics.Evict(EvictPolicy)
		if cb := c.opt.OnEvict; cb != nil {
			cb(victim.key, victim.val, EvictPolicy)
		}
	}
}

// expire removes e because its TLRU deadline has passed.
func (c *cache[K, V]) expire(e *entry[K, V]) {
	e.retire()
	if c.index.CompareAndDelete(e.key, e) {
		c.opt.Metrics.Evict(EvictTTL)
		if cb := c.opt.OnEvict; cb != nil {
			cb(e.key, e.val, EvictTTL)
		}
		c.reportSize()
	}
}

// reportSize pushes the current resident-entry count to Options.Metrics.
func (c *cache[K, V]) reportSize() {
	c.opt.Metrics.Size(int(c.index.Len()))
}

func (c *cache[K, V]) recordMiss() {
	c.misses.Add(1)
	c.opt.Metrics.Miss()
}

func (c *cache[K, V]) expired(e *entry[K, V]) bool {
	if e.exp == 0 {
		return false
	}
	return c.now() > e.exp
}

func (c *cache[K, V]) now() int64 {
	if c.opt.Clock != nil {
		return c.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

// defaultDeadline returns an absolute deadline based on ItemLifetime (TLRU).
func (c *cache[K, V]) defaultDeadline() int64 {
	if c.opt.ItemLifetime <= 0 {
		return 0
	}
	return c.deadline(c.opt.ItemLifetime)
}

// deadline converts a relative TTL into an absolute UnixNano deadline.
// A non-positive ttl returns 0 (no expiration).
func (c *cache[K, V]) deadline(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return c.now() + int64(ttl)
}
