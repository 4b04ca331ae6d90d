package cache

import "fmt"

// ErrNoLoader is returned by GetOrLoad/Warm when no Loader was configured.
var ErrNoLoader = fmt.Errorf("cache: no Loader provided")

// InvariantViolationError is panicked (never returned) when the cache
// detects a structurally impossible state — e.g. an entry being unlinked
// from a shard other than the one it was inserted into, or a replace
// attempted across two different keys. This always indicates a programming
// error in the cache itself, not a usage error callers can recover from.
type InvariantViolationError struct {
	Reason string
}

func (e *InvariantViolationError) Error() string {
	return "cache: invariant violation: " + e.Reason
}
