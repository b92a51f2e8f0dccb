package metrics

import (
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// SystemStats holds a single snapshot of host-wide resource usage.
type SystemStats struct {
	CPUPercent float64 // 0.0 .. 100.0
	MemPercent float64 // 0.0 .. 100.0
}

// SampleSystem collects a host-wide CPU and memory snapshot. CPU uses
// interval=0, so the first call after start-up reads the delta since boot.
// Fields are zero when the platform does not report them.
func SampleSystem() SystemStats {
	var s SystemStats
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		s.CPUPercent = pcts[0]
	}
	if vmem, err := mem.VirtualMemory(); err == nil && vmem != nil {
		s.MemPercent = vmem.UsedPercent
	}
	return s
}
