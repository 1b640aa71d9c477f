// Command pqbench drives the concurrent priority queue benchmark
// harness from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/concurrent-ds/skipqueue/internal/bench"
)

func main() {
	var (
		threads     = pflag.IntP("threads", "n", 1, "worker threads")
		seconds     = pflag.IntP("seconds", "t", 10, "run duration in seconds")
		offset      = pflag.IntP("offset", "o", 32, "delete-min relaxation window (max_offset)")
		size        = pflag.IntP("size", "s", 32768, "pre-fill element count")
		exponential = pflag.BoolP("exponential", "e", false, "use the DES/exponential arrival workload")
		concise     = pflag.BoolP("concise", "x", false, "print a single ops/sec integer and nothing else")
		help        = pflag.BoolP("help", "h", false, "show usage")
	)
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pqbench: failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := bench.Config{
		Threads:     *threads,
		Duration:    time.Duration(*seconds) * time.Second,
		MaxOffset:   *offset,
		PrefillSize: *size,
		Exponential: *exponential,
		Concise:     *concise,
	}

	result, err := bench.Run(context.Background(), cfg)
	if err != nil {
		logger.Fatal("benchmark run failed", zap.Error(err))
	}

	if cfg.Concise {
		fmt.Printf("%d\n", int64(result.OpsPerSecond))
		return
	}

	fmt.Printf("total time:     %s\n", result.Elapsed)
	fmt.Printf("total ops:      %d\n", result.TotalOps)
	fmt.Printf("ops/sec:        %.0f\n", result.OpsPerSecond)
	fmt.Printf("min ops/thread: %d\n", result.MinPerThread)
	fmt.Printf("max ops/thread: %d\n", result.MaxPerThread)
}
