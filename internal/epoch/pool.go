package epoch

import "sync"

// Pool recycles values of a single fixed shape. It exists so that nodes
// retired by the epoch GC are handed back to the allocator instead of the
// Go garbage collector, keeping the hot insert/delete-min paths from
// paying allocation cost once the pool has warmed up.
type Pool[T any] struct {
	pool sync.Pool
}

// NewPool builds a Pool whose Get calls newFn on a cache miss.
func NewPool[T any](newFn func() *T) *Pool[T] {
	p := &Pool[T]{}
	p.pool.New = func() any { return newFn() }
	return p
}

// Get returns a recycled or freshly constructed value.
func (p *Pool[T]) Get() *T {
	return p.pool.Get().(*T)
}

// Put returns a value to the pool for later reuse. Callers must only Put
// a value once the epoch domain has confirmed no reader can still observe
// it — Put is meant to be called from inside a Domain.Retire closure, not
// directly from a delete path.
func (p *Pool[T]) Put(v *T) {
	p.pool.Put(v)
}

// PoolSet is a per-level array of Pools, mirroring the original
// allocator's one garbage-collector id per node level (entry i serves
// level i+1, i.e. nodes with i+1 forward pointers, each a distinct
// object shape).
type PoolSet[T any] []*Pool[T]

// NewPoolSet builds a PoolSet with numLevels entries. newFn(level) must
// construct a *T sized for the given level (levels are 1-based).
func NewPoolSet[T any](numLevels int, newFn func(level int) *T) PoolSet[T] {
	ps := make(PoolSet[T], numLevels)
	for i := range ps {
		level := i + 1
		ps[i] = NewPool(func() *T { return newFn(level) })
	}
	return ps
}

// For returns the pool serving the given 1-based level.
func (ps PoolSet[T]) For(level int) *Pool[T] {
	return ps[level-1]
}
