// Package bench implements the worker-pool benchmark harness: spin up N
// goroutines pinned off the scheduler's migration path, run a configured
// workload against a shared queue for a fixed duration, and aggregate
// throughput.
package bench

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/concurrent-ds/skipqueue"
	"github.com/concurrent-ds/skipqueue/internal/workload"
)

// Config parameterises one benchmark run.
type Config struct {
	Threads     int
	Duration    time.Duration
	MaxOffset   int
	PrefillSize int
	Exponential bool
	Concise     bool
}

// Result is the aggregated outcome of a Run.
type Result struct {
	Elapsed      time.Duration
	TotalOps     int64
	OpsPerSecond float64
	MinPerThread int64
	MaxPerThread int64
}

// Run executes one benchmark: allocate the queue, pre-fill it, start
// cfg.Threads worker goroutines on a shared workload, let them run for
// cfg.Duration, then aggregate their op counts. It returns an error only
// if cfg.Threads is not positive — the steady-state insert/delete-min
// loop itself never fails.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.Threads <= 0 {
		return Result{}, fmt.Errorf("bench: threads must be positive, got %d", cfg.Threads)
	}

	q := skipqueue.NewWithOffset(cfg.MaxOffset)
	defer q.Close()

	seedRNG := rand.New(rand.NewSource(1))
	prefill := q.NewHandle(0)
	for i := 0; i < cfg.PrefillSize; i++ {
		q.Insert(prefill, uint64(seedRNG.Int63()>>16), nil)
	}
	prefill.Close()

	var arrivals []uint64
	var arrivalCounter atomic.Int64
	if cfg.Exponential {
		arrivals = workload.GenExponential(seedRNG, 100_000_000, 0.001)
	}

	counters := make([]*xsync.Counter, cfg.Threads)
	for i := range counters {
		counters[i] = xsync.NewCounter()
	}

	var ready sync.WaitGroup
	ready.Add(cfg.Threads)
	start := make(chan struct{})
	var stop atomic.Bool

	var wg sync.WaitGroup
	wg.Add(cfg.Threads)
	for i := 0; i < cfg.Threads; i++ {
		go func(idx int) {
			defer wg.Done()
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			h := q.NewHandle(int64(idx) + 1)
			defer h.Close()
			rng := rand.New(rand.NewSource(int64(idx) + 1))
			counter := counters[idx]

			ready.Done()
			<-start

			for !stop.Load() {
				if cfg.Exponential {
					// DES workload: each cycle is a delete-min
					// immediately followed by the insert of its
					// replacement arrival, per the discrete-event
					// simulation's pop-then-push pattern.
					q.DeleteMin(h)
					op := workload.DES(&arrivalCounter, arrivals)
					q.Insert(h, op.Key, nil)
					counter.Add(2)
					continue
				}

				switch op := workload.Uniform(rng); op.Kind {
				case workload.OpInsert:
					q.Insert(h, op.Key, nil)
				case workload.OpDeleteMin:
					q.DeleteMin(h)
				}
				counter.Add(1)
			}
		}(i)
	}

	ready.Wait()
	begin := time.Now()
	close(start)

	timer := time.NewTimer(cfg.Duration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	stop.Store(true)
	elapsed := time.Since(begin)

	wg.Wait()

	var total, min, max int64
	min = -1
	for _, c := range counters {
		v := c.Value()
		total += v
		if min < 0 || v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min < 0 {
		min = 0
	}

	return Result{
		Elapsed:      elapsed,
		TotalOps:     total,
		OpsPerSecond: float64(total) / elapsed.Seconds(),
		MinPerThread: min,
		MaxPerThread: max,
	}, nil
}
