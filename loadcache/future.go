package loadcache

import "context"

// Future is a non-blocking handle to a value the dictionary's deferred
// loader is producing, obtained via LoadingDictionary.GetAsync.
type Future[V any] struct {
	cell    *cell[V]
	metrics Metrics
}

// Wait blocks until the value is ready or ctx is done, whichever happens
// first — the same cancellation semantics as LoadingDictionary.Get.
func (f *Future[V]) Wait(ctx context.Context) (V, error) {
	var zero V
	select {
	case <-f.cell.done:
		if f.cell.err != nil {
			return zero, f.cell.err
		}
		return f.cell.val, nil
	case <-ctx.Done():
		f.metrics.Cancel()
		return zero, ErrCancelled
	}
}
