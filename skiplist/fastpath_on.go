//go:build skipqueuefastpath

package skiplist

import "github.com/concurrent-ds/skipqueue/internal/taggedref"

// shortcut implements the optional level-2 traversal optimisation: when
// x's third tower rung (next[2]) leads to a node whose own bottom
// pointer is already marked, delete-min can jump straight to that
// marked pointer instead of walking the dead run node by node. It is a
// pure performance hint — a negative answer just means the caller falls
// back to the bottom-chain walk — so any staleness here can never
// produce an incorrect result, only a missed shortcut.
func (l *List) shortcut(x *Node) (target uintptr, ok bool) {
	if x.Level() < 3 {
		return 0, false
	}

	y := unpackNode(x.next[2].Load())
	if y == l.tail {
		return 0, false
	}

	yNext0 := y.next[0].Load()
	if !taggedref.IsMarked(yNext0) {
		return 0, false
	}
	return yNext0, true
}
