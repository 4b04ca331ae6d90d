// Package prom adapts cache.Metrics and loadcache.Metrics onto Prometheus
// collectors.
package prom

import (
	"github.com/corecache/shardlru/cache"
	"github.com/corecache/shardlru/loadcache"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter implements cache.Metrics and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits    prometheus.Counter
	misses  prometheus.Counter
	evicts  *prometheus.CounterVec
	sizeEnt prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Cache hits",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Cache misses",
			ConstLabels: constLabels,
		}),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "evictions_total",
				Help:        "Cache evictions by reason",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		sizeEnt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_entries",
			Help:        "Number of resident entries",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.evicts, a.sizeEnt)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Evict increments the eviction counter with a reason label.
func (a *Adapter) Evict(r cache.EvictReason) {
	a.evicts.WithLabelValues(reason(r)).Inc()
}

// Size updates the resident-entry gauge.
func (a *Adapter) Size(entries int) {
	a.sizeEnt.Set(float64(entries))
}

// reason maps EvictReason to a stable label value.
func reason(r cache.EvictReason) string {
	switch r {
	case cache.EvictTTL:
		return "ttl"
	default:
		return "policy"
	}
}

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)

// LoadingAdapter implements loadcache.Metrics and exports Prometheus
// counters for the loading dictionary: how often the deferred loader ran,
// how often it faulted, and how often a caller's ctx fired before a value
// was ready.
type LoadingAdapter struct {
	loads   prometheus.Counter
	faults  prometheus.Counter
	cancels prometheus.Counter
}

// NewLoading constructs a Prometheus metrics adapter for loadcache.
func NewLoading(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *LoadingAdapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &LoadingAdapter{
		loads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "loader_invocations_total",
			Help:        "Deferred loader invocations",
			ConstLabels: constLabels,
		}),
		faults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "loader_faults_total",
			Help:        "Deferred loader faults",
			ConstLabels: constLabels,
		}),
		cancels: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "caller_cancellations_total",
			Help:        "Caller ctx cancellations while waiting on a deferred cell",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.loads, a.faults, a.cancels)
	return a
}

// Load increments the loader-invocation counter.
func (a *LoadingAdapter) Load() { a.loads.Inc() }

// Fault increments the loader-fault counter.
func (a *LoadingAdapter) Fault() { a.faults.Inc() }

// Cancel increments the caller-cancellation counter.
func (a *LoadingAdapter) Cancel() { a.cancels.Inc() }

// Compile-time check: ensure LoadingAdapter implements loadcache.Metrics.
var _ loadcache.Metrics = (*LoadingAdapter)(nil)
