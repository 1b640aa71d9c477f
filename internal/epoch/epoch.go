// Package epoch implements the epoch-based safe memory reclamation (SMR)
// scheme the skip list relies on: a thread that has announced it is
// "in a critical section" may hold references into the structure, and
// nothing it might be pointing at is ever freed until every such thread
// has been observed to have left that epoch.
//
// The allocator side of this package hands out nodes from per-level pools
// (one pool per skip-list level, mirroring the original's one
// garbage-collector-id per level) so that reclaimed nodes are recycled
// rather than handed back to the Go runtime, keeping steady-state
// insert/delete-min off the allocator's hot path.
package epoch

import (
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
)

// generations is the number of trailing epochs whose retirements are kept
// around before being safe to reclaim. Two full generations of slack
// between "retired" and "reclaimed" is the standard epoch-GC margin: by
// the time the global epoch has advanced twice past the one a node was
// retired in, no thread can still be announced in that epoch.
const generations = 3

// Domain is one epoch-reclamation universe. A skip list owns exactly one.
type Domain struct {
	global  atomic.Uint64
	nextID  atomic.Int64
	threads *xsync.Map[int64, *threadState]

	advanceMu sync.Mutex
	limbo     [generations]limboBag
}

type threadState struct {
	active atomic.Bool
	epoch  atomic.Uint64
}

type limboBag struct {
	mu    sync.Mutex
	items []func()
}

// NewDomain creates an epoch domain with no registered threads.
func NewDomain() *Domain {
	return &Domain{threads: xsync.NewMap[int64, *threadState]()}
}

// Local is a per-thread (per-goroutine-worker) handle into a Domain. It is
// not safe for concurrent use by multiple goroutines — exactly one
// goroutine should own a Local, obtained once at worker start, the Go
// substitute for the original's __thread-qualified locals.
type Local struct {
	d     *Domain
	id    int64
	state *threadState
}

// Register creates a new per-thread handle and adds it to the domain's
// liveness registry.
func (d *Domain) Register() *Local {
	id := d.nextID.Add(1)
	st := &threadState{}
	d.threads.Store(id, st)
	return &Local{d: d, id: id, state: st}
}

// Unregister removes the thread from the liveness registry. Call this
// when a worker goroutine is shutting down for good.
func (l *Local) Unregister() {
	l.d.threads.Delete(l.id)
}

// Guard marks the lifetime of one critical section.
type Guard struct {
	l *Local
}

// Enter begins a critical section: any pointer read from the skip list
// while a Guard is live remains safe to dereference.
func (l *Local) Enter() Guard {
	l.state.epoch.Store(l.d.global.Load())
	l.state.active.Store(true)
	return Guard{l: l}
}

// Exit ends the critical section started by the matching Enter.
func (g Guard) Exit() {
	g.l.state.active.Store(false)
	g.l.d.tryAdvance()
}

// Retire schedules reclaim to run once no thread can still be inside a
// critical section that started before this call. reclaim is typically a
// closure that returns a node to its level pool.
func (d *Domain) Retire(reclaim func()) {
	bag := &d.limbo[d.global.Load()%generations]
	bag.mu.Lock()
	bag.items = append(bag.items, reclaim)
	bag.mu.Unlock()
}

// tryAdvance attempts to move the global epoch forward by one and, if it
// succeeds, reclaims whatever was retired two generations ago. It is safe
// to call from any number of goroutines; at most one will do the work in
// any given race, the rest return immediately.
func (d *Domain) tryAdvance() {
	if !d.advanceMu.TryLock() {
		return
	}
	defer d.advanceMu.Unlock()

	cur := d.global.Load()
	ready := true
	d.threads.Range(func(_ int64, st *threadState) bool {
		if st.active.Load() && st.epoch.Load() != cur {
			ready = false
			return false
		}
		return true
	})
	if !ready {
		return
	}

	next := cur + 1
	d.global.Store(next)

	reclaimIdx := next % generations
	bag := &d.limbo[reclaimIdx]
	bag.mu.Lock()
	pending := bag.items
	bag.items = nil
	bag.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}
