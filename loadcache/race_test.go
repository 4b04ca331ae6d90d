package loadcache

import (
	"context"
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"
)

// TestRace_MixedWorkload drives concurrent Get/TryGet/GetAsync/Contains
// over a small keyspace so cells are frequently shared. Should pass under
// -race without detector reports.
func TestRace_MixedWorkload(t *testing.T) {
	d := New[string, string](Options[string, string]{
		Loader: func(_ context.Context, k string) (string, error) {
			time.Sleep(time.Millisecond)
			return "v:" + k, nil
		},
		TaskTimeout: 2 * time.Second,
	})

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := 64
	deadline := time.Now().Add(500 * time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
			for time.Now().Before(deadline) {
				k := "k:" + strconv.Itoa(r.Intn(keyspace))
				ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
				switch r.Intn(4) {
				case 0:
					d.Get(ctx, k)
				case 1:
					d.TryGet(ctx, k)
				case 2:
					d.GetAsync(k).Wait(ctx)
				default:
					d.Contains(k)
				}
				cancel()
			}
		}(w)
	}
	wg.Wait()
}
