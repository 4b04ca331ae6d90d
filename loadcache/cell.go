package loadcache

import "sync"

// cell is the deferred cell the dictionary's single-flight mechanism is
// built on. It must be cheap to construct — no loader call — so that
// candidates discarded by a lost sync.Map.LoadOrStore race cost nothing.
// The loader fires at most once, on whichever goroutine's call to cellFor
// first runs start.Do, regardless of which goroutine actually won the map
// insertion.
type cell[V any] struct {
	start sync.Once
	done  chan struct{}
	val   V
	err   error
}

func newCell[V any]() *cell[V] {
	return &cell[V]{done: make(chan struct{})}
}

// newCompletedCell builds a cell that is already resolved to v — used for
// Options.Initial preloads, which must never invoke the loader.
func newCompletedCell[V any](v V) *cell[V] {
	c := &cell[V]{done: make(chan struct{}), val: v}
	c.start.Do(func() {})
	close(c.done)
	return c
}
