package batch

import (
	"golang.org/x/sys/unix"
)

// freeMemory returns the free physical memory in bytes, or 0 when it is unknown.
func freeMemory() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	return uint64(info.Freeram) * uint64(info.Unit)
}
