package loadcache

import (
	"context"
	"time"
)

// DeferredLoader produces a value for key, cooperatively observing ctx.
// The dictionary always runs it in its own goroutine, at most once per
// cell, bounded by Options.TaskTimeout rather than the caller's ctx.
type DeferredLoader[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Options configures a LoadingDictionary. Loader is required; everything
// else has a sensible default applied by New.
type Options[K comparable, V any] struct {
	// Loader produces values on a miss. Required; New panics if nil.
	Loader DeferredLoader[K, V]

	// Initial preloads (key, value) pairs as already-completed cells; the
	// loader never runs for these.
	Initial map[K]V

	// ConcurrencyLevel is an expected-concurrent-access estimate. Default:
	// runtime.GOMAXPROCS(0).
	//
	// The dictionary is built on sync.Map — for the same atomic
	// insert-or-get guarantee cache's hashIndex relies on — which has no
	// presizing hook, so this field is accepted for construction-option
	// parity but has no effect on memory layout. See DESIGN.md.
	ConcurrencyLevel int

	// Capacity is an initial-size hint. Default: 50_000. Same caveat as
	// ConcurrencyLevel.
	Capacity int

	// TaskTimeout bounds a single loader invocation's lifetime, independent
	// of any caller's ctx. Default: 30s.
	TaskTimeout time.Duration

	// Logger receives one informational line when fault cleanup discovers
	// a cell was already replaced by a concurrent retry. Default:
	// NoopLogger.
	Logger Logger

	// Metrics receives Load/Fault/Cancel signals. Nil => NoopMetrics.
	Metrics Metrics
}

// Metrics exposes loading-dictionary observability hooks: how often the
// deferred loader actually ran, how often it faulted, and how often a
// caller's ctx fired before a value was ready. A NoopMetrics
// implementation is used by default; plug metrics/prom.LoadingAdapter to
// export to Prometheus.
type Metrics interface {
	Load()
	Fault()
	Cancel()
}

// NoopMetrics is a Metrics implementation that does nothing.
type NoopMetrics struct{}

func (NoopMetrics) Load()   {}
func (NoopMetrics) Fault()  {}
func (NoopMetrics) Cancel() {}
