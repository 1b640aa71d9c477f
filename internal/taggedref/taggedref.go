// Package taggedref implements the mark-bit tagged pointer that the skip
// list uses to encode logical deletion directly inside a forward pointer.
//
// Every node in the list is heap allocated and, in practice, cache-line
// aligned, which leaves the low bit of its address permanently zero. This
// package steals that bit: a Ref stores an ordinary pointer with its low
// bit used as a "this node is logically deleted" flag. The rest of the
// codebase never pokes at the bit directly — it goes through Mark/Unmark/
// IsMarked and the handful of atomic operations on Ref.
package taggedref

import (
	"sync/atomic"
	"unsafe"
)

const markBit = uintptr(1)

// Ref is an atomic, tagged pointer-sized word. The zero Ref holds a nil,
// unmarked pointer.
type Ref struct {
	v atomic.Uintptr
}

// Pack converts a raw pointer into the uintptr a Ref stores.
func Pack(p unsafe.Pointer) uintptr {
	return uintptr(p)
}

// Unpack converts a packed, possibly-marked word back into a raw pointer,
// stripping the mark bit.
func Unpack(w uintptr) unsafe.Pointer {
	return unsafe.Pointer(Unmark(w))
}

// Mark sets the logical-deletion bit on a packed word.
func Mark(w uintptr) uintptr { return w | markBit }

// Unmark clears the logical-deletion bit on a packed word.
func Unmark(w uintptr) uintptr { return w &^ markBit }

// IsMarked reports whether the logical-deletion bit is set.
func IsMarked(w uintptr) bool { return w&markBit != 0 }

// Load returns the current packed word (pointer + mark bit), acquire.
func (r *Ref) Load() uintptr { return r.v.Load() }

// Store unconditionally sets the packed word, release.
func (r *Ref) Store(w uintptr) { r.v.Store(w) }

// CAS attempts to swap old for new; both are packed words, mark bit and
// all. Callers that want to replace an unmarked pointer with another must
// pass unmarked words for both sides.
func (r *Ref) CAS(old, new uintptr) bool {
	return r.v.CompareAndSwap(old, new)
}

// MarkInPlace atomically sets the mark bit on whatever pointer is
// currently stored and returns the pre-mark value. Because marking only
// ever sets a bit that starts at zero, this single fetch-and-add doubles
// as an atomic "read current value and delete". The returned value's
// mark bit indicates whether this
// call was the one that performed the deletion (0) or lost a race to a
// concurrent marker (1, already marked).
//
// Callers must only reach for MarkInPlace where no other goroutine can
// mark the word first (a prior IsMarked check is not enough under
// concurrency) — calling it on an already-marked word carries into the
// pointer bits instead of leaving them alone. Use FetchOr1 where that
// precondition cannot be guaranteed.
func (r *Ref) MarkInPlace() uintptr {
	return r.v.Add(markBit) - markBit
}

// FetchOr1 atomically sets the mark bit via a true fetch-or and returns
// the pre-mark value, the linearisation point for delete-min and remove.
// Unlike
// MarkInPlace's fetch-and-add, OR-ing an already-set bit is a no-op, so
// this is safe to call without first checking IsMarked.
func (r *Ref) FetchOr1() uintptr {
	return r.v.Or(markBit)
}
