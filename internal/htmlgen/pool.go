package htmlgen

import "runtime"

// Worker pool sizing constants.
const (
	// minWorkers ensures at least one page is always in flight.
	minWorkers = 1

	// maxWorkers caps the fan-out; page generation is I/O-light and more
	// goroutines stop paying off quickly.
	maxWorkers = 8
)

// resolveWorkerCount determines the document pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func resolveWorkerCount(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs in container environments.
	n := runtime.GOMAXPROCS(0)
	if n < minWorkers {
		return minWorkers
	}
	if n > maxWorkers {
		return maxWorkers
	}
	return n
}
