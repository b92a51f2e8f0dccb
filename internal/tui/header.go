package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/nedmatch/internal/format"
)

// HeaderModel renders the top bar: title, run ID, batch state and elapsed
// time.
type HeaderModel struct {
	startTime time.Time
	endTime   time.Time
	version   string
	runID     string
	state     string
	width     int
}

// NewHeaderModel creates a header whose clock starts now.
func NewHeaderModel(version, runID string) HeaderModel {
	return HeaderModel{
		startTime: time.Now(),
		version:   version,
		runID:     runID,
		state:     "idle",
	}
}

// SetState records the batch state shown in the header.
func (h *HeaderModel) SetState(state string) { h.state = state }

// SetDone freezes the elapsed timer.
func (h *HeaderModel) SetDone() {
	if h.endTime.IsZero() {
		h.endTime = time.Now()
	}
}

// SetWidth updates the available width.
func (h *HeaderModel) SetWidth(w int) { h.width = w }

// Elapsed returns the run time so far, or the total once done.
func (h HeaderModel) Elapsed() time.Duration {
	if !h.endTime.IsZero() {
		return h.endTime.Sub(h.startTime)
	}
	return time.Since(h.startTime)
}

// View renders the header.
func (h HeaderModel) View() string {
	title := "nedmatch"
	if h.version != "" && h.version != "dev" {
		title += " " + h.version
	}
	sep := dimStyle.Render(" | ")
	row := titleStyle.Render(title) + sep +
		dimStyle.Render("run ") + accentStyle.Render(h.runID) + sep +
		accentStyle.Render(h.state) + sep +
		accentStyle.Render(fmt.Sprintf("Elapsed: %s", format.FormatExecutionDuration(h.Elapsed())))
	if h.width > 0 {
		return headerStyle.Width(h.width).MaxWidth(h.width).Render(row)
	}
	return headerStyle.Render(row)
}

// padRight pads s with spaces to width cells.
func padRight(s string, width int) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	return s + fmt.Sprintf("%*s", gap, "")
}
