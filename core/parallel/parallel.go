// Package parallel provides chunked parallel execution helpers for
// embarrassingly parallel numerical loops: per-grid-point weighted
// least squares solves and per-pair density grids.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits items across the available CPU cores and runs fn
// on each half-open range [start, end). fn must not mutate shared state
// outside its range.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// Ceiling division so every item is covered.
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}

		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially over [0, items) when
// items is at or below threshold, and in parallel otherwise. Small grids
// are not worth the goroutine fan-out.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}

	Parallelize(items, fn)
}

// ForEachPair runs fn for every unordered pair (j, k) with j < k < d,
// one goroutine per pair. Pair workloads (joint density grids) are
// independent of each other and coarse enough that per-pair goroutines
// beat range chunking.
func ForEachPair(d int, fn func(j, k int)) {
	var wg sync.WaitGroup
	for j := 0; j < d; j++ {
		for k := j + 1; k < d; k++ {
			wg.Add(1)
			go func(j, k int) {
				defer wg.Done()
				fn(j, k)
			}(j, k)
		}
	}
	wg.Wait()
}
