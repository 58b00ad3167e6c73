package batch

import (
	"runtime"
)

// maxConcurrency caps parallel submissions so one batch cannot flood the backend
const maxConcurrency = 32

// OptimalConcurrency picks a worker count for a batch from the CPU count and free memory
func OptimalConcurrency() int {
	numCPU := runtime.NumCPU()

	// Submissions spend nearly all their time waiting on the backend
	optimal := numCPU * 4

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	availMB := (m.Sys - m.Alloc) / 1024 / 1024

	// Budget ~8MB per in-flight submission for request and response buffers
	maxByMemory := int(availMB / 8)

	if optimal > maxConcurrency {
		optimal = maxConcurrency
	}
	if maxByMemory > 0 && maxByMemory < optimal {
		optimal = maxByMemory
	}
	if optimal < 1 {
		optimal = 1
	}
	return optimal
}
