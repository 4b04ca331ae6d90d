// Package cache provides a fast, generic, sharded in-memory LRU/TLRU cache.
//
// Design
//
//   - Single hash index: key lookup goes through one process-wide hashIndex
//     (a sync.Map plus a size counter), which gives the atomic insert-or-get
//     the rest of the cache is built on. Shards hold no map of their own.
//
//   - Sharded recency: the cache is split into Shards independent
//     doubly-linked recency lists (head=MRU, tail=LRU), each behind its own
//     mutex. A new entry's shard is chosen uniformly at random rather than
//     by hashing its key — random placement needs no coordination and lets
//     replace relocate an entry without touching the index's identity.
//     Capacity is enforced by trimming the tail of whichever shard just
//     grew, not the cache-wide LRU entry; see enforceCapacity in cache.go.
//
//   - TLRU: entries may carry an absolute expiry computed from
//     Options.ItemLifetime (or a per-call TTL via SetWithTTL). Expiration is
//     lazy, checked on Get; there is no background sweeper.
//
//   - Put-collision policy: Options.UpdateExisting selects between replacing
//     the stored value in place (false is promote-and-discard the new
//     value, true is replace) on a Set/SetWithTTL collision. Add never
//     updates an existing key.
//
//   - GetOrLoad/Warm: GetOrLoad coalesces concurrent loads for the same key
//     via an internal singleflight group; Warm calls Options.Loader
//     directly for each key not already resident. Nil Options.Loader makes
//     both return ErrNoLoader.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals. The
//     default is NoopMetrics; see metrics/prom for a Prometheus adapter.
//
//   - Callbacks: Options.OnEvict(k, v, reason) runs for every eviction
//     outside any shard lock (EvictPolicy or EvictTTL).
//
// Basic usage
//
//	c := cache.New[string, []byte](cache.Options[string, []byte]{Capacity: 10_000})
//	c.Set("a", []byte("1"))
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//	c.Remove("a")
//
// With TTL
//
//	c := cache.New[string, string](cache.Options[string, string]{Capacity: 1024})
//	c.SetWithTTL("tmp", "v", 200*time.Millisecond)
//	time.Sleep(300 * time.Millisecond)
//	_, ok := c.Get("tmp") // ok == false (expired)
//
// With GetOrLoad (singleflight)
//
//	c := cache.New[string, string](cache.Options[string, string]{
//	    Capacity: 1024,
//	    Loader: func(ctx context.Context, k string) (string, error) {
//	        return "v:" + k, nil
//	    },
//	})
//	v, err := c.GetOrLoad(context.Background(), "key")
//
// Exporting metrics (Prometheus adapter)
//
//	m := prom.New(nil, "cachex", "demo", nil) // implements cache.Metrics
//	c := cache.New[string, []byte](cache.Options[string, []byte]{
//	    Capacity: 10_000,
//	    Metrics:  m,
//	})
//
// Thread-safety & complexity
//
// All methods are safe for concurrent use. Typical operation cost is O(1)
// expected: one hash-index lookup plus constant-time list adjustments under
// a single shard's lock. Eviction work is O(1) per removed entry.
package cache
