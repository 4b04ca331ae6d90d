package cache

import "sync/atomic"

// entryState tracks an entry's position in its lifecycle. Every transition
// away from entryPending or entryLinked happens while holding the owning
// shard's lock, which is what lets a publisher (linkNew/replace) and a
// remover (Remove/expire/trimBack) racing on the same brand-new entry agree
// on exactly one outcome instead of leaving a node linked into a shard's
// list but absent from the hash index, or vice versa.
type entryState int32

const (
	// entryPending: constructed and installed in the hash index, but not
	// yet linked into any shard's recency list.
	entryPending entryState = iota
	// entryLinked: linked into shard's list and reachable from the index.
	entryLinked
	// entryDead: retired. Never linked (if claimed while still pending) or
	// already unlinked (if claimed while linked); never transitions again.
	entryDead
)

// entry is the intrusive doubly linked list element owned by a shard.
//
// An entry is reachable from the hash index under key and from exactly one
// shard's recency list while state is entryLinked. While an entry is
// pending or dead, it must not be promoted or relinked by any other
// goroutine — see shard.promote and entry.retire.
type entry[K comparable, V any] struct {
	key K
	val V

	// Intrusive list links. head = MRU, tail = LRU. Guarded by shard.mu.
	prev *entry[K, V]
	next *entry[K, V]

	// shard is the owning shard, fixed at construction time (random pick on
	// insert; may change identity entirely on replace, never in place).
	shard *shard[K, V]

	// state is read lock-free as a double-checked-locking hint, and
	// re-checked under shard.mu before any mutation.
	state atomic.Int32

	// exp is an absolute UnixNano deadline; zero means "no TTL" (TLRU off
	// or this cache instance has no ItemLifetime configured).
	exp int64
}

// retire claims this entry's removal, under its owning shard's lock: if the
// entry was still pending, it is marked dead without ever touching a list;
// if it was linked, it is unlinked and marked dead in the same locked
// section. Returns false if another goroutine already retired it — safe to
// call more than once for the same entry, and safe to call concurrently
// with a linkNew/replace racing to publish it for the first time.
func (e *entry[K, V]) retire() bool {
	sh := e.shard
	sh.mu.Lock()
	defer sh.mu.Unlock()

	switch entryState(e.state.Load()) {
	case entryDead:
		return false
	case entryLinked:
		sh.unlinkLocked(e)
		e.state.Store(int32(entryDead))
		return true
	default: // entryPending
		e.state.Store(int32(entryDead))
		return true
	}
}
