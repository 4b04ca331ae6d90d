package cache

import "sync"

// shard is an independent partition of the cache's recency list. It owns no
// map of its own — key lookup is the single global hashIndex (index.go); a
// shard is nothing but a doubly linked list (head=MRU, tail=LRU) plus the
// mutex that serializes promotions, inserts, and unlinks against it.
// Splitting the recency list (not the index) into S shards is what lets
// gets on different keys proceed without contending a single cache-wide
// lock.
type shard[K comparable, V any] struct {
	mu   sync.Mutex
	head *entry[K, V] // MRU
	tail *entry[K, V] // LRU
	len  int
}

// pushFront links a freshly constructed entry at MRU. Caller holds s.mu and
// owns the only reference to e (it has not been published anywhere yet).
func (s *shard[K, V]) pushFront(e *entry[K, V]) {
	e.prev = nil
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
	s.len++
}

// promote moves e to MRU using double-checked locking: the state is
// checked lock-free first to skip the lock entirely for an entry already
// mid-removal (the common case under a hot Get/Get race), then re-checked
// together with the "already at head" predicate once s.mu is held — without
// that second check, two concurrent promotions of the same entry could
// corrupt the list.
func (s *shard[K, V]) promote(e *entry[K, V]) {
	if entryState(e.state.Load()) != entryLinked {
		return
	}
	s.mu.Lock()
	if entryState(e.state.Load()) == entryLinked && e != s.head {
		s.moveToFrontLocked(e)
	}
	s.mu.Unlock()
}

// moveToFrontLocked requires s.mu held and e known valid and not already head.
func (s *shard[K, V]) moveToFrontLocked(e *entry[K, V]) {
	s.unlinkLocked(e)
	e.prev = nil
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
	s.len++
}

// unlinkLocked detaches e from the list. Requires s.mu held and e to
// currently belong to this shard's list; an entry owned by another shard
// panics with an *InvariantViolationError.
func (s *shard[K, V]) unlinkLocked(e *entry[K, V]) {
	if e.shard != s {
		panic(&InvariantViolationError{Reason: "unlink of an entry from a shard other than its owner"})
	}
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if s.head == e {
		s.head = e.next
	}
	if s.tail == e {
		s.tail = e.prev
	}
	e.prev, e.next = nil, nil
	s.len--
}

// trimBack evicts the current LRU entry of this shard, if any, returning it
// so the caller can delete it from the hash index and report metrics.
// Requires no lock held; takes s.mu itself — the same lock entry.retire
// takes for this shard, so a concurrent Remove/expire racing to retire the
// exact same victim always observes a consistent, single-winner outcome:
// whichever of the two acquires s.mu first unlinks it and marks it dead,
// and the other finds it already gone.
func (s *shard[K, V]) trimBack() *entry[K, V] {
	s.mu.Lock()
	victim := s.tail
	if victim != nil {
		s.unlinkLocked(victim)
		victim.state.Store(int32(entryDead))
	}
	s.mu.Unlock()
	return victim
}

// Len returns the number of entries resident in this shard's list.
func (s *shard[K, V]) Len() int {
	s.mu.Lock()
	n := s.len
	s.mu.Unlock()
	return n
}

// reset empties the shard's list in O(1) (drops references; no per-node
// unlinking bookkeeping is needed since the whole shard is being discarded).
func (s *shard[K, V]) reset() {
	s.mu.Lock()
	s.head, s.tail, s.len = nil, nil, 0
	s.mu.Unlock()
}
