package tui

import (
	"fmt"
	"strings"

	progressbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/nedmatch/internal/format"
	"github.com/agbru/nedmatch/internal/orchestration"
)

// CountersModel shows the batch progress bar and the found / not found /
// failed counts.
type CountersModel struct {
	snap   orchestration.ProgressSnapshot
	bar    progressbar.Model
	width  int
	height int
}

// NewCountersModel creates the panel for a batch of total rows.
func NewCountersModel(total int) CountersModel {
	return CountersModel{
		snap: orchestration.NewProgressTracker(total).Snapshot(),
		bar:  progressbar.New(progressbar.WithDefaultGradient(), progressbar.WithoutPercentage()),
	}
}

// SetSize updates dimensions.
func (c *CountersModel) SetSize(w, h int) {
	c.width, c.height = w, h
	c.bar.Width = max(10, w-12)
}

// Update stores the latest snapshot.
func (c *CountersModel) Update(s orchestration.ProgressSnapshot) { c.snap = s }

// Snapshot returns the latest snapshot.
func (c CountersModel) Snapshot() orchestration.ProgressSnapshot { return c.snap }

// View renders the panel.
func (c CountersModel) View() string {
	s := c.snap
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Cross-match"))
	b.WriteString("\n")
	b.WriteString(c.bar.ViewAs(s.Fraction))
	b.WriteString(" ")
	b.WriteString(valueStyle.Render(fmt.Sprintf("%5.1f%%", s.Fraction*100)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("num left: "))
	b.WriteString(valueStyle.Render(format.FormatCount(s.Remaining)))
	b.WriteString(labelStyle.Render(fmt.Sprintf(" of %s", format.FormatCount(s.Total))))
	b.WriteString("\n")
	b.WriteString(foundStyle.Render("found " + format.FormatCount(s.Found)))
	b.WriteString("   ")
	b.WriteString(notFoundStyle.Render("not in NED " + format.FormatCount(s.NotFound)))
	b.WriteString("   ")
	b.WriteString(failedStyle.Render("failed " + format.FormatCount(s.Failed)))
	b.WriteString("\n")
	eta := format.FormatETA(s.ETA)
	if s.Remaining == 0 {
		eta = "done"
	}
	b.WriteString(labelStyle.Render("rate "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%.1f rows/s", s.Rate)))
	b.WriteString(labelStyle.Render("   ETA "))
	b.WriteString(valueStyle.Render(eta))

	style := panelStyle
	if c.width > 2 {
		style = style.Width(c.width - 2)
	}
	if c.height > 2 {
		style = style.Height(c.height - 2)
	}
	return style.Render(lipgloss.NewStyle().MaxWidth(max(c.width-4, 20)).Render(b.String()))
}
