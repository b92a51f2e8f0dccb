package tui

import (
	"fmt"
	"strings"

	"github.com/agbru/nedmatch/internal/format"
	"github.com/agbru/nedmatch/internal/metrics"
)

// sampleHistory is how many samples each sparkline keeps.
const sampleHistory = 120

// MetricsModel displays process and host resource usage, plus the lookup
// rate history.
type MetricsModel struct {
	mem    metrics.MemorySnapshot
	cpu    *RingBuffer
	sysMem *RingBuffer
	rate   *RingBuffer
	width  int
	height int
}

// NewMetricsModel creates an empty metrics panel.
func NewMetricsModel() MetricsModel {
	return MetricsModel{
		cpu:    NewRingBuffer(sampleHistory),
		sysMem: NewRingBuffer(sampleHistory),
		rate:   NewRingBuffer(sampleHistory),
	}
}

// SetSize updates dimensions.
func (m *MetricsModel) SetSize(w, h int) {
	m.width, m.height = w, h
}

// UpdateMemStats stores a memory reading.
func (m *MetricsModel) UpdateMemStats(s metrics.MemorySnapshot) { m.mem = s }

// UpdateSysStats records a CPU and memory percentage sample.
func (m *MetricsModel) UpdateSysStats(s metrics.SystemStats) {
	m.cpu.Push(s.CPUPercent)
	m.sysMem.Push(s.MemPercent)
}

// UpdateRate records a lookup rate sample in rows per second.
func (m *MetricsModel) UpdateRate(rowsPerSecond float64) { m.rate.Push(rowsPerSecond) }

// View renders the metrics panel.
func (m MetricsModel) View() string {
	inner := max(m.width-4, 20)
	sparkWidth := max(inner-22, 4)

	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Resources"))
	b.WriteString("\n")
	b.WriteString(metricRow("Heap:", fmt.Sprintf("%s (peak %s)", format.FormatBytes(m.mem.HeapAlloc), format.FormatBytes(m.mem.PeakHeapAlloc))))
	b.WriteString("\n")
	b.WriteString(metricRow("GC:", fmt.Sprintf("%d (%.1fms)  goroutines %d", m.mem.NumGC, float64(m.mem.PauseTotalNs)/1e6, m.mem.Goroutines)))
	b.WriteString("\n")
	b.WriteString(metricRow(fmt.Sprintf("CPU %5.1f%%", m.cpu.Last()), cpuSparklineStyle.Render(RenderSparkline(m.cpu.Slice(), 100, sparkWidth))))
	b.WriteString("\n")
	b.WriteString(metricRow(fmt.Sprintf("MEM %5.1f%%", m.sysMem.Last()), memSparklineStyle.Render(RenderSparkline(m.sysMem.Slice(), 100, sparkWidth))))
	b.WriteString("\n")
	b.WriteString(metricRow(fmt.Sprintf("%6.1f rows/s", m.rate.Last()), accentStyle.Render(RenderSparkline(m.rate.Slice(), m.rate.Max(), sparkWidth))))

	style := panelStyle
	if m.width > 2 {
		style = style.Width(m.width - 2)
	}
	if m.height > 2 {
		style = style.Height(m.height - 2)
	}
	return style.Render(b.String())
}

func metricRow(label, value string) string {
	return padRight(labelStyle.Render(label), 16) + " " + valueStyle.Render(value)
}
