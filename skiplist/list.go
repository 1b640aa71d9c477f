// Package skiplist is the concurrent, lock-free skip list underlying the
// priority queue: sorted insert, relaxed delete-min via logical marking,
// best-effort remove-by-key, and amortised bulk physical unlinking
// ("head-swing") tied to an epoch-based reclaimer.
//
// Every exported operation is lock-free: some calling goroutine always
// makes progress, and delete-min is additionally wait-free per victim
// once a goroutine wins the mark race on it.
package skiplist

import (
	"math"
	"math/rand"
	"unsafe"

	"github.com/concurrent-ds/skipqueue/internal/epoch"
	"github.com/concurrent-ds/skipqueue/internal/taggedref"
)

// orphanHeadRefreshEvery bounds the insert orphan-placement loop (§4.3
// step 4): after this many failed splice attempts, the inserter abandons
// its current position and re-locates the logical head of the list via
// weakSearchHead. The exact value only affects progress under heavy
// concurrent deletion, never correctness.
const orphanHeadRefreshEvery = 10

// List is the sorted set of (key, value) entries the priority queue is
// built on. The zero List is not usable; construct one with New.
type List struct {
	head, tail *Node
	maxOffset  int
	domain     *epoch.Domain
	pools      epoch.PoolSet[Node]
}

// New creates an empty list. maxOffset is the number of logically
// deleted nodes a deleter must observe past the head before it attempts
// a head-swing.
func New(maxOffset int) *List {
	head := &Node{key: 0, level: NumLevels, next: make([]taggedref.Ref, NumLevels)}
	tail := &Node{key: math.MaxUint64, level: NumLevels, next: make([]taggedref.Ref, NumLevels)}

	tailPacked := packNode(tail)
	for i := range head.next {
		head.next[i].Store(tailPacked)
	}

	l := &List{
		head:      head,
		tail:      tail,
		maxOffset: maxOffset,
		domain:    epoch.NewDomain(),
	}
	l.pools = epoch.NewPoolSet(NumLevels, func(level int) *Node {
		return &Node{level: int32(level), poolLevel: int32(level), next: make([]taggedref.Ref, level)}
	})
	return l
}

// Close is a no-op: it releases no epoch bookkeeping and does not run
// pending retirements. Nodes are left to the Go garbage collector once
// the list itself becomes unreachable; Close mirrors pq_destroy as the
// explicit end-of-life hook callers are expected to invoke.
func (l *List) Close() {}

func packNode(n *Node) uintptr { return taggedref.Pack(unsafe.Pointer(n)) }
func unpackNode(w uintptr) *Node { return (*Node)(taggedref.Unpack(w)) }

// Worker is per-goroutine state: an epoch guard handle, an RNG, and the
// delete-min resume-point cache (pt / oldObsHP / oldOffset). Go has no
// implicit thread-local storage, so callers obtain one Worker per
// goroutine from List.NewWorker and reuse it across calls — the explicit
// substitute the Design Notes call for.
type Worker struct {
	local *epoch.Local
	rng   *rand.Rand

	pt        *Node
	oldObsHP  uintptr
	oldOffset int
}

// NewWorker registers a new per-goroutine handle with the list's epoch
// domain. seed feeds the worker's private level-drawing RNG.
func (l *List) NewWorker(seed int64) *Worker {
	return &Worker{
		local: l.domain.Register(),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Close releases the worker's epoch registration. Call it once the
// owning goroutine is done issuing operations.
func (w *Worker) Close() { w.local.Unregister() }

// randomLevel draws a node height with P(level = k) = 2^-k, capped at
// NumLevels, by counting trailing one-bits of a masked random word — a
// branch-predictable alternative to a log/erand float transform that
// produces the same distribution.
func (w *Worker) randomLevel() int {
	x := w.rng.Uint64() & ((1 << (NumLevels - 1)) - 1)
	level := 1
	for x&1 == 1 {
		level++
		x >>= 1
	}
	return level
}

// weakSearchPredecessors finds, at every level, the last node whose key
// is (bef: <) / (!bef: <=) the target key; marks are not checked, so the
// node found may be logically deleted. It does not help
// unlink marked nodes it passes over — that is left to head-swing.
func (l *List) weakSearchPredecessors(key uint64, bef bool) (preds, succs [NumLevels]*Node) {
	x := l.head
	for i := NumLevels - 1; i >= 0; i-- {
		xNext := unpackNode(x.next[i].Load())
		for {
			if xNext.key > key || (bef && xNext.key == key) {
				break
			}
			x = xNext
			xNext = unpackNode(x.next[i].Load())
		}
		preds[i] = x
		succs[i] = xNext
	}
	return preds, succs
}

// weakSearchHead walks down from the top level, following runs of nodes
// whose own bottom pointer is already marked, to find the current
// logical start of the list. Used to re-anchor the insert orphan-
// placement loop when it has failed too many splice attempts in a row.
func (l *List) weakSearchHead() *Node {
	x := l.head
	var xNext *Node
	for i := NumLevels - 1; i >= 0; i-- {
		for {
			xNext = unpackNode(x.next[i].Load())
			if xNext == l.tail {
				break
			}
			if !taggedref.IsMarked(xNext.next[0].Load()) {
				break
			}
			x = xNext
		}
	}
	return xNext
}

// weakSearchEnd locates, per level from toplvl down to 1, the last node
// in a run of logically-deleted nodes reachable directly from head — the
// predecessors a head-swing needs to splice head.next[i] past. toplvl=-1
// means start at the top level; it returns the highest level that
// actually needs updating.
func (l *List) weakSearchEnd(toplvl int) (preds [NumLevels]*Node, lvl int) {
	startLvl := NumLevels - 1
	if toplvl >= 0 {
		startLvl = toplvl
	}
	if toplvl > 0 {
		lvl = toplvl
	}

	x := l.head
	for i := startLvl; i >= 1; i-- {
		for {
			xNext := unpackNode(x.next[i].Load())
			if !taggedref.IsMarked(xNext.next[0].Load()) {
				break
			}
			if lvl == 0 {
				lvl = i
			}
			x = xNext
		}
		preds[i] = x
	}
	return preds, lvl
}

// Insert adds key/value to the list. It never fails or returns an error:
// all contention is resolved by internal retry, per §4.3.
func (l *List) Insert(w *Worker, key uint64, value any) {
	g := w.local.Enter()
	defer g.Exit()

	level := w.randomLevel()
	n := l.allocNode(level, key, value)

	for {
		preds, succs := l.weakSearchPredecessors(key, false)
		succPacked := packNode(succs[0])
		newPacked := packNode(n)

		for i := 0; i < level; i++ {
			n.next[i].Store(packNode(succs[i]))
		}

		if preds[0].next[0].CAS(succPacked, newPacked) {
			l.linkUpperLevels(n, key, level, preds, succs)
			return
		}

		cur := preds[0].next[0].Load()
		if !taggedref.IsMarked(cur) {
			// A competing insert landed between preds[0] and succs[0];
			// re-run the search and retry from the top.
			continue
		}

		// preds[0] was logically deleted out from under us: n cannot
		// land at its intended spot. Demote it to a bare level-1 node
		// and splice it in anywhere there is room.
		n.level = 1
		l.orphanPlace(n, unpackNode(cur))
		return
	}
}

func (l *List) allocNode(level int, key uint64, value any) *Node {
	n := l.pools.For(level).Get()
	n.key = key
	n.value = value
	n.level = int32(level)
	for i := range n.next {
		n.next[i].Store(0)
	}
	return n
}

// orphanPlace implements the insert demote-and-retry loop of §4.3 step 4:
// walk forward from start along unmarked successors, splicing n in at
// the first opportunity. Every orphanHeadRefreshEvery failed hops, it
// re-anchors via weakSearchHead so the loop can't wander forever behind
// a long run of concurrent deletions.
func (l *List) orphanPlace(n *Node, start *Node) {
	x := start
	hops := 0
	for {
		hops++
		if hops > orphanHeadRefreshEvery {
			x = l.weakSearchHead()
			hops = 0
		}
		xNextW := x.next[0].Load()
		if !taggedref.IsMarked(xNextW) {
			n.next[0].Store(xNextW)
			if x.next[0].CAS(xNextW, packNode(n)) {
				return
			}
			xNextW = x.next[0].Load()
		}
		x = unpackNode(xNextW)
	}
}

// linkUpperLevels publishes n at levels 1..level-1, in order, after the
// level-0 commit has already linearised the insert. Any level the
// inserter fails to reach is a performance loss only: upper levels are
// search accelerators, not a correctness requirement (I2 only binds what
// is actually linked).
func (l *List) linkUpperLevels(n *Node, key uint64, level int, preds, succs [NumLevels]*Node) {
	i := 1
	for i < level {
		pred := preds[i]
		succ := succs[i]

		if taggedref.IsMarked(n.next[0].Load()) {
			// n was deleted before its upper levels could be published;
			// nothing above level 0 can help a search anymore.
			return
		}

		succPacked := packNode(succ)
		for {
			cur := n.next[i].Load()
			if cur == succPacked {
				break
			}
			if n.next[i].CAS(cur, succPacked) {
				break
			}
			if taggedref.IsMarked(n.next[i].Load()) {
				return
			}
		}

		if pred.next[i].CAS(succPacked, packNode(n)) {
			i++
			continue
		}

		preds, succs = l.weakSearchPredecessors(key, false)
		if unpackNode(preds[i].next[i].Load()) == n {
			i++
		}
	}
}

// DeleteMin removes and returns the key/value of the leftmost non-marked
// node. ok is false on an effectively empty queue. See §4.4: the
// linearisation point is the fetch-and-or that wins the mark race.
func (l *List) DeleteMin(w *Worker) (key uint64, value any, ok bool) {
	g := w.local.Enter()
	defer g.Exit()

	headNext := l.head.next[0].Load()
	var x *Node
	if w.oldObsHP == headNext {
		x = w.pt
	} else {
		x = l.head
		w.oldOffset = 0
		w.oldObsHP = headNext
	}

	offset := 0
	var xNextW uintptr
	for {
		offset++

		if target, hasShortcut := l.shortcut(x); hasShortcut {
			x = unpackNode(target)
			continue
		}

		xNextW = x.next[0].Load()
		if unpackNode(xNextW) == l.tail {
			return 0, nil, false
		}
		if !taggedref.IsMarked(xNextW) {
			xNextW = x.next[0].FetchOr1()
		}
		if !taggedref.IsMarked(xNextW) {
			break
		}
		x = unpackNode(xNextW)
	}

	victim := unpackNode(xNextW)
	key, value, ok = victim.key, victim.value, true

	w.pt = victim
	w.oldOffset += offset

	obsHP := w.oldObsHP
	if w.oldOffset > l.maxOffset && l.head.next[0].Load() == obsHP {
		l.headSwing(victim, obsHP)
	}
	return
}

// headSwing attempts the bulk physical unlink of §4.5: one CAS claims
// the prefix ending at victim, then every level's head pointer is swung
// past the reclaimed run, then the run is retired through the epoch
// domain.
func (l *List) headSwing(victim *Node, obsHP uintptr) {
	markedVictim := taggedref.Mark(packNode(victim))
	if !l.head.next[0].CAS(obsHP, markedVictim) {
		return
	}

	preds, topLvl := l.weakSearchEnd(-1)
	if l.head.next[0].Load() != markedVictim {
		return
	}

	for i := topLvl; i >= 1; i-- {
		for {
			cur := l.head.next[i].Load()
			target := preds[i].next[i].Load()
			if l.head.next[i].CAS(cur, target) {
				break
			}
			preds, _ = l.weakSearchEnd(i)
			if l.head.next[0].Load() != markedVictim {
				return
			}
		}
	}

	cur := unpackNode(obsHP)
	for cur != victim {
		next := unpackNode(cur.next[0].Load())
		freed := cur
		l.domain.Retire(func() {
			l.pools.For(int(freed.poolLevel)).Put(freed)
		})
		cur = next
	}
}

// Remove best-effort deletes key, returning its value. It does not
// attempt to unlink at any level — physical cleanup happens only via
// head-swing. A node is logically deleted by marking the forward pointer
// that targets it — the same convention DeleteMin uses, marking the
// cursor's own next[0] to delete whatever it points at — so Remove marks
// preds[0].next[0] (the edge into the key node), not the key node's own
// next[0]; weakSearchPredecessors(bef=true) positions preds[0] immediately
// before the key and succs[0] at the key node itself.
func (l *List) Remove(w *Worker, key uint64) (value any, ok bool) {
	g := w.local.Enter()
	defer g.Exit()

	preds, succs := l.weakSearchPredecessors(key, true)
	node := succs[0]
	if node == l.tail || node.key != key {
		return nil, false
	}

	old := preds[0].next[0].FetchOr1()
	if taggedref.IsMarked(old) {
		return nil, false
	}
	return node.value, true
}
