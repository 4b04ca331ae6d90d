package loadcache

import (
	"context"
	"reflect"
	"runtime"
	"sync"
	"time"
)

const defaultCapacity = 50_000

// LoadingDictionary is an unbounded, read-mostly map from keys to values
// produced on demand by a DeferredLoader, guaranteeing single-flight
// loading and prompt caller cancellation (see doc.go for the full design).
type LoadingDictionary[K comparable, V any] struct {
	m sync.Map // K -> *cell[V]

	loader      DeferredLoader[K, V]
	taskTimeout time.Duration
	logger      Logger
	metrics     Metrics

	// Recorded for construction-option parity; see Options.ConcurrencyLevel.
	concurrencyLevel int
	capacity         int
}

// New constructs a LoadingDictionary. Panics if opt.Loader is nil.
func New[K comparable, V any](opt Options[K, V]) *LoadingDictionary[K, V] {
	if opt.Loader == nil {
		panic("loadcache: Loader must not be nil")
	}
	if opt.TaskTimeout <= 0 {
		opt.TaskTimeout = 30 * time.Second
	}
	if opt.Logger == nil {
		opt.Logger = NoopLogger{}
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.ConcurrencyLevel <= 0 {
		opt.ConcurrencyLevel = runtime.GOMAXPROCS(0)
	}
	if opt.Capacity <= 0 {
		opt.Capacity = defaultCapacity
	}

	d := &LoadingDictionary[K, V]{
		loader:           opt.Loader,
		taskTimeout:      opt.TaskTimeout,
		logger:           opt.Logger,
		metrics:          opt.Metrics,
		concurrencyLevel: opt.ConcurrencyLevel,
		capacity:         opt.Capacity,
	}
	for k, v := range opt.Initial {
		d.m.Store(k, newCompletedCell[V](v))
	}
	return d
}

// Get returns the value for key, triggering the loader on first access and
// sharing the in-flight result across concurrent callers of the same key.
// Returns ErrCancelled if ctx fires first, ErrInvalidArgument if key is
// nil, or a *KeyNotFoundError if the loader faults.
func (d *LoadingDictionary[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	if isNilKey(key) {
		return zero, ErrInvalidArgument
	}
	c := d.cellFor(key)
	select {
	case <-c.done:
		if c.err != nil {
			return zero, c.err
		}
		return c.val, nil
	case <-ctx.Done():
		d.metrics.Cancel()
		return zero, ErrCancelled
	}
}

// TryGet is Get, except a loader fault is surfaced as (zero, false, nil)
// rather than an error. Cancellation and invalid-argument errors still
// propagate as errors.
func (d *LoadingDictionary[K, V]) TryGet(ctx context.Context, key K) (V, bool, error) {
	var zero V
	if isNilKey(key) {
		return zero, false, ErrInvalidArgument
	}
	c := d.cellFor(key)
	select {
	case <-c.done:
		if c.err != nil {
			return zero, false, nil
		}
		return c.val, true, nil
	case <-ctx.Done():
		d.metrics.Cancel()
		return zero, false, ErrCancelled
	}
}

// GetAsync returns a non-blocking handle to the value, starting the loader
// if this is the first access for key. Call (*Future[V]).Wait to block.
func (d *LoadingDictionary[K, V]) GetAsync(key K) *Future[V] {
	if isNilKey(key) {
		c := &cell[V]{done: make(chan struct{}), err: ErrInvalidArgument}
		close(c.done)
		return &Future[V]{cell: c, metrics: d.metrics}
	}
	return &Future[V]{cell: d.cellFor(key), metrics: d.metrics}
}

// Contains reports whether a deferred cell currently exists for key —
// pending or completed; faulted cells remove themselves, so a faulted key
// reports false once the fault has propagated.
func (d *LoadingDictionary[K, V]) Contains(key K) bool {
	_, ok := d.m.Load(key)
	return ok
}

// Keys returns a best-effort snapshot of currently-stored keys, pending
// cells included.
func (d *LoadingDictionary[K, V]) Keys() []K {
	keys := make([]K, 0)
	d.m.Range(func(k, _ any) bool {
		keys = append(keys, k.(K))
		return true
	})
	return keys
}

// cellFor returns the cell for key, publishing a fresh candidate if none
// exists yet. Whichever goroutine's call observes the winning cell first
// starts the loader, via start.Do — independent of which goroutine's
// candidate actually won the map insertion.
func (d *LoadingDictionary[K, V]) cellFor(key K) *cell[V] {
	candidate := newCell[V]()
	actual, _ := d.m.LoadOrStore(key, candidate)
	c := actual.(*cell[V])
	c.start.Do(func() { d.run(key, c) })
	return c
}

// run executes the loader in its own goroutine, bounded by taskTimeout
// rather than any caller's ctx. On fault, the cell is removed via
// CompareAndDelete before its waiters are released, so a caller that has
// observed the fault never finds the faulted cell still in the map and a
// retry re-triggers the loader; the removal is a no-op (logged) if the map
// no longer points at this cell.
func (d *LoadingDictionary[K, V]) run(key K, c *cell[V]) {
	d.metrics.Load()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.taskTimeout)
		defer cancel()

		v, err := d.loader(ctx, key)
		if err != nil {
			d.metrics.Fault()
			c.err = &KeyNotFoundError{Key: key, Cause: unwrapSingleCause(err)}
			if !d.m.CompareAndDelete(key, c) {
				d.logger.Printf("loadcache: fault cleanup for key %v found cell already replaced", key)
			}
			close(c.done)
			return
		}
		c.val = v
		close(c.done)
	}()
}

// isNilKey reports whether key is a nil pointer, interface, map, slice,
// channel, or function value — the only "null reference" shapes a
// comparable generic K can take in Go.
func isNilKey[K comparable](key K) bool {
	v := any(key)
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}
