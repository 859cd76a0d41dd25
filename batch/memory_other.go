//go:build !linux

package batch

import (
	"runtime"
)

// freeMemory estimates free memory from the heap the runtime has obtained but is not
// using.
func freeMemory() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapIdle - stats.HeapReleased
}
