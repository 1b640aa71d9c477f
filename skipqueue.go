// Package skipqueue is a concurrent, lock-free priority queue: a thin
// façade over an internal skip list, generalised to carry any value type
// and exposed as the package most callers should import.
package skipqueue

import "github.com/concurrent-ds/skipqueue/skiplist"

// Queue is a concurrent priority queue keyed by uint64, ordered smallest
// key first. The zero Queue is not usable; construct one with New.
//
// DeleteMin is relaxed: under contention it may return a key that is not
// the strict global minimum, bounded by the queue's configured offset
// window (see New). Insert and Remove have no such relaxation.
type Queue struct {
	list *skiplist.List
}

// DefaultMaxOffset is the delete-min relaxation window used by New. It
// mirrors the original benchmark harness's default thread count times a
// small constant: past this many consecutive marked nodes, a deleter
// attempts to physically compact the prefix it just walked.
const DefaultMaxOffset = 32

// New constructs an empty Queue. maxOffset bounds how many logically
// deleted nodes accumulate at the front of the list before a deleter
// triggers a head-swing compaction; NewWithOffset exposes this directly,
// New uses DefaultMaxOffset.
func New() *Queue {
	return NewWithOffset(DefaultMaxOffset)
}

// NewWithOffset is New with an explicit relaxation window.
func NewWithOffset(maxOffset int) *Queue {
	return &Queue{list: skiplist.New(maxOffset)}
}

// Close calls the underlying list's Close, which is a no-op end-of-life
// hook: no reclamation bookkeeping is released.
func (q *Queue) Close() { q.list.Close() }

// Handle is a per-goroutine access token for a Queue, the unit every
// operation below is issued through. Obtain one with Queue.NewHandle per
// goroutine that will call Insert/DeleteMin/Remove, and Close it when
// that goroutine is done.
type Handle struct {
	w *skiplist.Worker
}

// NewHandle registers a new Handle for the calling goroutine. seed feeds
// the handle's private level-drawing RNG; callers issuing many handles
// concurrently should vary it (e.g. goroutine index) to avoid correlated
// tower heights.
func (q *Queue) NewHandle(seed int64) *Handle {
	return &Handle{w: q.list.NewWorker(seed)}
}

// Close releases the handle's registration with the queue's epoch
// domain. Call it once the owning goroutine will issue no further
// operations through this handle.
func (h *Handle) Close() { h.w.Close() }

// Insert adds key/value to the queue.
func (q *Queue) Insert(h *Handle, key uint64, value any) {
	q.list.Insert(h.w, key, value)
}

// DeleteMin removes and returns an approximately-minimal entry. ok is
// false when the queue was observed empty.
func (q *Queue) DeleteMin(h *Handle) (key uint64, value any, ok bool) {
	return q.list.DeleteMin(h.w)
}

// Remove deletes the entry for key if present, returning its value.
func (q *Queue) Remove(h *Handle, key uint64) (value any, ok bool) {
	return q.list.Remove(h.w, key)
}
