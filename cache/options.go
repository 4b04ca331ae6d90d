package cache

import (
	"context"
	"time"
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictPolicy — removed by the LRU policy (capacity trim of the shard
	// that just grew; see cache.go's enforceCapacity).
	EvictPolicy EvictReason = iota
	// EvictTTL — expired by TLRU (lazy eviction on access).
	EvictTTL
)

// Metrics exposes cache-level observability hooks. A NoopMetrics
// implementation is provided and used by default; plug metrics/prom.Adapter
// to export to Prometheus.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int)
}

// Clock provides time in UnixNano; useful for deterministic tests (see
// cache_test.go's fakeClock).
type Clock interface{ NowUnixNano() int64 }

// Loader fetches a value synchronously on a cache miss. Invoked on the
// calling goroutine, coalesced across concurrent callers of the same key
// via an internal singleflight group. Used by GetOrLoad/Warm.
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Options configures the cache. Capacity must be positive (New panics
// otherwise); the other zero values are safe, and New() applies:
//   - Shards <= 0    => runtime.GOMAXPROCS(0)
//   - nil Metrics    => NoopMetrics
//   - ItemLifetime 0 => TLRU disabled (entries never expire on their own)
type Options[K comparable, V any] struct {
	// Capacity is the entry-count limit for the whole cache, checked against
	// the size of the single global hash index; it is not divided among
	// shards.
	Capacity int

	// Shards is the number of independent recency lists (the concurrency
	// parameter). If <= 0, runtime.GOMAXPROCS(0) is used.
	Shards int

	// UpdateExisting selects the put-collision policy: true replaces the
	// stored entry in place (possibly under a new random shard); false (the
	// default) promotes the existing entry and discards the new value.
	UpdateExisting bool

	// ItemLifetime, when positive, enables TLRU: every Set/Add/GetOrLoad
	// insertion gets an absolute expiry of now+ItemLifetime, enforced lazily
	// on Get. Zero disables TLRU (entries live until evicted or removed).
	ItemLifetime time.Duration

	// Loader fetches a value on miss. Used by GetOrLoad/Warm. Nil makes
	// GetOrLoad/Warm return ErrNoLoader.
	Loader Loader[K, V]

	// OnEvict is called synchronously for every eviction (capacity trim or
	// TLRU expiry), outside any shard lock. Keep callbacks lightweight.
	OnEvict func(k K, v V, reason EvictReason)

	// Metrics receives Hit/Miss/Evict/Size signals. Nil => NoopMetrics.
	Metrics Metrics

	// Clock overrides the time source (tests). Nil => time.Now().
	Clock Clock
}
