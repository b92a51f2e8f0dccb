package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/nedmatch/internal/ui"
)

// Dashboard styles, built from the ui theme by initTUIStyles.
var (
	panelStyle         lipgloss.Style
	panelTitleStyle    lipgloss.Style
	headerStyle        lipgloss.Style
	titleStyle         lipgloss.Style
	dimStyle           lipgloss.Style
	accentStyle        lipgloss.Style
	foundStyle         lipgloss.Style
	notFoundStyle      lipgloss.Style
	failedStyle        lipgloss.Style
	labelStyle         lipgloss.Style
	valueStyle         lipgloss.Style
	footerKeyStyle     lipgloss.Style
	footerDescStyle    lipgloss.Style
	statusRunningStyle lipgloss.Style
	statusPausedStyle  lipgloss.Style
	statusDoneStyle    lipgloss.Style
	statusErrorStyle   lipgloss.Style
	cpuSparklineStyle  lipgloss.Style
	memSparklineStyle  lipgloss.Style
)

func init() {
	initTUIStyles()
}

// initTUIStyles rebuilds the styles from the current ui theme. Run calls it
// again because the theme is chosen after package initialization.
func initTUIStyles() {
	t := ui.GetCurrentTUITheme()

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Foreground(t.Text).
		Padding(0, 1)
	panelTitleStyle = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(t.Accent).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	dimStyle = lipgloss.NewStyle().Foreground(t.Dim)
	accentStyle = lipgloss.NewStyle().Foreground(t.Accent)
	foundStyle = lipgloss.NewStyle().Foreground(t.Success)
	notFoundStyle = lipgloss.NewStyle().Foreground(t.Warning)
	failedStyle = lipgloss.NewStyle().Foreground(t.Error)
	labelStyle = lipgloss.NewStyle().Foreground(t.Dim)
	valueStyle = lipgloss.NewStyle().Foreground(t.Text).Bold(true)
	footerKeyStyle = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	footerDescStyle = lipgloss.NewStyle().Foreground(t.Dim)
	statusRunningStyle = lipgloss.NewStyle().Foreground(t.Success).Bold(true)
	statusPausedStyle = lipgloss.NewStyle().Foreground(t.Warning).Bold(true)
	statusDoneStyle = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	statusErrorStyle = lipgloss.NewStyle().Foreground(t.Error).Bold(true)
	cpuSparklineStyle = lipgloss.NewStyle().Foreground(t.Accent)
	memSparklineStyle = lipgloss.NewStyle().Foreground(t.Warning)
}
