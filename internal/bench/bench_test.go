package bench

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/concurrent-ds/skipqueue/internal/workload"
)

func TestRunAggregatesAcrossThreads(t *testing.T) {
	cfg := Config{
		Threads:     4,
		Duration:    50 * time.Millisecond,
		MaxOffset:   16,
		PrefillSize: 256,
	}

	result, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.TotalOps <= 0 {
		t.Fatal("expected at least one op across all worker threads in 50ms")
	}
	if result.MinPerThread > result.MaxPerThread {
		t.Fatalf("min per thread %d exceeds max per thread %d", result.MinPerThread, result.MaxPerThread)
	}
	if result.OpsPerSecond <= 0 {
		t.Fatal("expected positive ops/sec")
	}
}

func TestRunRejectsNonPositiveThreads(t *testing.T) {
	_, err := Run(context.Background(), Config{Threads: 0, Duration: time.Millisecond})
	if err == nil {
		t.Fatal("expected an error for a zero-thread config")
	}
}

// TestDESArrivalsMonotonicPerCounter verifies P5's bound indirectly: the
// cumulative arrival trace GenExponential builds is non-decreasing, so a
// DES workload fed sequential counter values only ever moves forward in
// simulated time.
func TestDESArrivalsMonotonicPerCounter(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	arrivals := workload.GenExponential(rng, 1000, 0.001)

	for i := 1; i < len(arrivals); i++ {
		if arrivals[i] < arrivals[i-1] {
			t.Fatalf("arrivals not monotonic at index %d: %d then %d", i, arrivals[i-1], arrivals[i])
		}
	}
}
