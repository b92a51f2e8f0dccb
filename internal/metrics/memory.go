package metrics

import (
	"runtime"
	"sync"
)

// MemorySnapshot holds a point-in-time memory reading.
type MemorySnapshot struct {
	HeapAlloc    uint64 // bytes in use by application
	Sys          uint64 // total bytes obtained from OS
	NumGC        uint32 // number of completed GC cycles
	PauseTotalNs uint64 // cumulative GC pause time
	Goroutines   int
	// PeakHeapAlloc is the largest HeapAlloc seen by the collector so far.
	PeakHeapAlloc uint64
}

// MemoryCollector reads runtime memory statistics and remembers the peak
// heap size across readings. It is safe for concurrent use.
type MemoryCollector struct {
	mu   sync.Mutex
	peak uint64
}

// NewMemoryCollector creates a new memory collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Snapshot reads current memory statistics.
func (mc *MemoryCollector) Snapshot() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	mc.mu.Lock()
	if m.HeapAlloc > mc.peak {
		mc.peak = m.HeapAlloc
	}
	peak := mc.peak
	mc.mu.Unlock()

	return MemorySnapshot{
		HeapAlloc:     m.HeapAlloc,
		Sys:           m.Sys,
		NumGC:         m.NumGC,
		PauseTotalNs:  m.PauseTotalNs,
		Goroutines:    runtime.NumGoroutine(),
		PeakHeapAlloc: peak,
	}
}
