// Package workload supplies the request generators the benchmark harness
// drives each worker goroutine with: a uniform insert/delete-min mix and
// a discrete-event-simulation (DES) arrival process.
package workload

import (
	"math"
	"math/rand"
	"sync/atomic"
)

// Kind identifies which queue operation an Op represents.
type Kind int

const (
	OpInsert Kind = iota
	OpDeleteMin
)

// Op is one unit of work for a benchmark worker to issue against the
// queue. Key is only meaningful when Kind is OpInsert.
type Op struct {
	Kind Kind
	Key  uint64
}

// key48 mimics the original nrand48 generator's range: a non-negative
// 48-bit pseudorandom value, produced here by discarding rand.Uint64's
// top 16 bits.
func key48(rng *rand.Rand) uint64 {
	return rng.Uint64() & (1<<48 - 1)
}

// Uniform returns insert with probability 1/2 and delete-min otherwise,
// the default workload when no DES arrival trace is configured.
func Uniform(rng *rand.Rand) Op {
	if rng.Intn(2) == 0 {
		return Op{Kind: OpInsert, Key: key48(rng)}
	}
	return Op{Kind: OpDeleteMin}
}

// DES returns the insert half of one discrete-event-simulation cycle;
// callers are expected to issue the delete-min themselves immediately
// before calling DES, mirroring the original benchmark's "pop a timer,
// push its successor" loop (see internal/bench.Run). counter is shared
// across all worker goroutines and indexes monotonically into arrivals;
// once counter exceeds len(arrivals) every subsequent call wraps back
// into the trace rather than panicking, since a benchmark run may
// outlast the precomputed horizon.
func DES(counter *atomic.Int64, arrivals []uint64) Op {
	idx := counter.Add(1) - 1
	return Op{Kind: OpInsert, Key: arrivals[int(idx)%len(arrivals)]}
}

// GenExponential builds a cumulative arrival-time trace of n events with
// geometrically distributed inter-arrival gaps (success probability p),
// the discrete analogue of a Poisson process's exponential inter-arrival
// times — used to seed a DES-style workload with realistic event
// clustering instead of uniform spacing.
func GenExponential(rng *rand.Rand, n int, p float64) []uint64 {
	arrivals := make([]uint64, n)
	var t uint64
	for i := range arrivals {
		// Inverse-transform sampling for a Geometric(p) gap: draw U
		// uniform on (0,1) and take ceil(log(U)/log(1-p)).
		u := rng.Float64()
		for u <= 0 {
			u = rng.Float64()
		}
		gap := uint64(1)
		if p < 1 {
			f := 1 - p
			if f > 0 {
				v := math.Log(u) / math.Log(f)
				if v > 0 {
					gap = uint64(v) + 1
				}
			}
		}
		t += gap
		arrivals[i] = t
	}
	return arrivals
}
