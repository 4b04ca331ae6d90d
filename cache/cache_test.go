package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

type fakeClock struct{ t int64 }

func (f *fakeClock) NowUnixNano() int64  { return f.t }
func (f *fakeClock) add(d time.Duration) { f.t += int64(d) }

// Uses a fake clock to avoid timing flakiness.
// Ensures that per-entry TTL is respected.
func TestCache_TTL_FakeClock(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{}
	c := New[string, string](Options[string, string]{Capacity: 4, Clock: clk})
	t.Cleanup(func() { _ = c.Close() })

	c.SetWithTTL("x", "v", 100*time.Millisecond)
	if _, ok := c.Get("x"); !ok {
		t.Fatal("fresh miss")
	}
	clk.add(200 * time.Millisecond)
	if _, ok := c.Get("x"); ok {
		t.Fatal("expired hit")
	}
}

// Basic Add/Set/Get/Remove semantics.
// Add inserts only if key is absent; Set updates (UpdateExisting enabled);
// Remove deletes.
func TestCache_BasicAddSetGetRemove(t *testing.T) {
	t.Parallel()

	c := New[string, int](Options[string, int]{Capacity: 8, UpdateExisting: true})
	t.Cleanup(func() { _ = c.Close() })

	if !c.Add("a", 1) {
		t.Fatal("Add a=1 must be true")
	}
	if c.Add("a", 2) {
		t.Fatal("Add duplicate must be false")
	}

	c.Set("a", 11)
	if v, ok := c.Get("a"); !ok || v != 11 {
		t.Fatalf("Get a want 11, got %v ok=%v", v, ok)
	}

	if !c.Remove("a") {
		t.Fatal("Remove a must be true")
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("a must be absent after Remove")
	}
}

// Deterministic LRU eviction: single shard, small capacity.
// Accessing "a" promotes it; inserting "c" evicts LRU ("b").
func TestCache_EvictionLRU(t *testing.T) {
	t.Parallel()

	c := New[string, int](Options[string, int]{
		Capacity: 2,
		Shards:   1, // force a single shard so LRU is global
	})
	t.Cleanup(func() { _ = c.Close() })

	c.Set("a", 1) // LRU = a
	c.Set("b", 2) // MRU = b

	if _, ok := c.Get("a"); !ok { // promote a -> MRU
		t.Fatal("expect hit for a")
	}
	c.Set("c", 3) // overflow -> evict LRU (b)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b must be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a must survive (promoted)")
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatal("c must be present")
	}
}

// Singleflight test: concurrent GetOrLoad calls for the same key
// should trigger the Loader at most once; subsequent calls are cache hits.
func TestCache_GetOrLoad_Singleflight(t *testing.T) {
	var calls int64

	c := New[string, string](Options[string, string]{
		Capacity: 64,
		Loader: func(_ context.Context, k string) (string, error) {
			atomic.AddInt64(&calls, 1)
			time.Sleep(5 * time.Millisecond) // simulate I/O
			return "v:" + k, nil
		},
	})
	t.Cleanup(func() { _ = c.Close() })

	const N = 64
	var g errgroup.Group
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := 0; i < N; i++ {
		g.Go(func() error {
			v, err := c.GetOrLoad(ctx, "k")
			if err != nil {
				return err
			}
			if v != "v:k" {
				return fmt.Errorf("got %q", v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("loader must run exactly once, got %d", got)
	}

	if v, err := c.GetOrLoad(context.Background(), "k"); err != nil || v != "v:k" {
		t.Fatalf("second GetOrLoad failed: v=%q err=%v", v, err)
	}
}

// Set on a collision defaults to promote-and-discard: the stored value does
// not change.
func TestCache_Set_PromoteOnCollision(t *testing.T) {
	t.Parallel()

	c := New[string, int](Options[string, int]{Capacity: 8})
	t.Cleanup(func() { _ = c.Close() })

	c.Set("a", 1)
	c.Set("a", 2) // UpdateExisting is false by default: promote, don't replace

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("want a=1 (unchanged), got %v ok=%v", v, ok)
	}
}

// With UpdateExisting, Set replaces the stored value on a collision.
func TestCache_Set_UpdateExisting(t *testing.T) {
	t.Parallel()

	c := New[string, int](Options[string, int]{Capacity: 8, UpdateExisting: true})
	t.Cleanup(func() { _ = c.Close() })

	c.Set("a", 1)
	c.Set("a", 2)

	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Fatalf("want a=2 (replaced), got %v ok=%v", v, ok)
	}
}

// Capacity 1 forces eviction on every distinct new key, with a single shard
// to make the eviction deterministic.
func TestCache_CapacityOne(t *testing.T) {
	t.Parallel()

	c := New[string, int](Options[string, int]{Capacity: 1, Shards: 1})
	t.Cleanup(func() { _ = c.Close() })

	c.Set("a", 1)
	c.Set("b", 2)

	if _, ok := c.Get("a"); ok {
		t.Fatal("a must have been evicted")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Fatalf("want b=2, got %v ok=%v", v, ok)
	}
	if got := c.Len(); got != 1 {
		t.Fatalf("want Len()==1, got %d", got)
	}
}

// Warm populates every key not already resident, using the Loader, and
// leaves the cache hit-able afterward.
func TestCache_Warm(t *testing.T) {
	t.Parallel()

	c := New[string, string](Options[string, string]{
		Capacity: 16,
		Loader: func(_ context.Context, k string) (string, error) {
			return "v:" + k, nil
		},
	})
	t.Cleanup(func() { _ = c.Close() })

	c.Set("a", "preexisting")
	if err := c.Warm(context.Background(), []string{"a", "b", "c"}); err != nil {
		t.Fatalf("Warm: %v", err)
	}

	if v, ok := c.Get("a"); !ok || v != "preexisting" {
		t.Fatalf("Warm must not overwrite a present key: got %v ok=%v", v, ok)
	}
	if v, ok := c.Get("b"); !ok || v != "v:b" {
		t.Fatalf("want b=v:b, got %v ok=%v", v, ok)
	}
	if v, ok := c.Get("c"); !ok || v != "v:c" {
		t.Fatalf("want c=v:c, got %v ok=%v", v, ok)
	}
}

// Warm and GetOrLoad report ErrNoLoader when no Loader is configured.
func TestCache_NoLoader(t *testing.T) {
	t.Parallel()

	c := New[string, int](Options[string, int]{Capacity: 4})
	t.Cleanup(func() { _ = c.Close() })

	if _, err := c.GetOrLoad(context.Background(), "a"); err != ErrNoLoader {
		t.Fatalf("want ErrNoLoader, got %v", err)
	}
	if err := c.Warm(context.Background(), []string{"a"}); err != ErrNoLoader {
		t.Fatalf("want ErrNoLoader, got %v", err)
	}
}

// Stats tracks lifetime requests/misses and Reset zeroes everything.
func TestCache_StatsAndReset(t *testing.T) {
	t.Parallel()

	c := New[string, int](Options[string, int]{Capacity: 4})
	t.Cleanup(func() { _ = c.Close() })

	c.Set("a", 1)
	c.Get("a")         // hit
	c.Get("missing")   // miss

	reqs, misses, ratio := c.Stats()
	if reqs != 2 || misses != 1 {
		t.Fatalf("want reqs=2 misses=1, got reqs=%d misses=%d", reqs, misses)
	}
	if ratio != 0.5 {
		t.Fatalf("want ratio=0.5, got %v", ratio)
	}

	c.Reset()
	if c.Len() != 0 {
		t.Fatalf("want Len()==0 after Reset, got %d", c.Len())
	}
	reqs, misses, ratio = c.Stats()
	if reqs != 0 || misses != 0 || ratio != 0 {
		t.Fatalf("want zeroed stats after Reset, got reqs=%d misses=%d ratio=%v", reqs, misses, ratio)
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("a must be gone after Reset")
	}
}
