package skiplist

import "github.com/concurrent-ds/skipqueue/internal/taggedref"

// NumLevels bounds how tall a node's tower of forward pointers can grow.
// A node's level is drawn from a geometric distribution with parameter
// 1/2, so levels much past 32 occur with vanishing probability even under
// very large lists.
const NumLevels = 32

// Node is a single skip-list entry. Level i's forward pointer lives at
// next[i]; a node present at level i is guaranteed (invariant I2) to also
// be present at every level below i.
//
// key/value/level are written exactly once, before the node is published
// by the Insert commit CAS (§4.3 step 3-4); after publication they are
// read-only for the remainder of the node's life, so no atomics are
// needed on them — only on next, which every concurrent reader and
// deleter touches.
type Node struct {
	key   uint64
	value any
	level int32
	next  []taggedref.Ref

	// poolLevel records the tower height the node was *allocated* at,
	// i.e. which per-level pool owns its next backing array. Insert can
	// demote level below poolLevel when splicing an orphaned node in at
	// the bottom only (§4.3 step 4), but the node must always return to
	// the pool it came from.
	poolLevel int32
}

// Level reports the node's tower height.
func (n *Node) Level() int { return int(n.level) }
