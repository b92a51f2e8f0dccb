package ui

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a set of ANSI escape codes, one per color role.
type Theme struct {
	Name      string
	Primary   string // headings, row counts
	Secondary string // labels, hints
	Success   string // found rows, completed runs
	Warning   string // not-found rows
	Error     string // failed lookups, fatal errors
	Info      string // progress and timing
	Reset     string
}

var (
	// DarkTheme suits dark terminal backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   "\033[38;5;45m",  // Cyan
		Secondary: "\033[38;5;245m", // Grey
		Success:   "\033[38;5;78m",  // Green
		Warning:   "\033[38;5;221m", // Yellow
		Error:     "\033[38;5;203m", // Red
		Info:      "\033[38;5;111m", // Light blue
		Reset:     "\033[0m",
	}

	// NoColorTheme disables all escape codes. It is selected by --no-color
	// or the NO_COLOR environment variable.
	NoColorTheme = Theme{Name: "none"}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// TUITheme holds the lipgloss colors of the dashboard.
type TUITheme struct {
	Text    lipgloss.TerminalColor
	Border  lipgloss.TerminalColor
	Accent  lipgloss.TerminalColor
	Success lipgloss.TerminalColor
	Warning lipgloss.TerminalColor
	Error   lipgloss.TerminalColor
	Dim     lipgloss.TerminalColor
}

var (
	// DarkTUITheme is the default night-sky palette.
	DarkTUITheme = TUITheme{
		Text:    lipgloss.Color("#DDE3EA"),
		Border:  lipgloss.Color("#3B6EA5"),
		Accent:  lipgloss.Color("#5FD7FF"),
		Success: lipgloss.Color("#87D787"),
		Warning: lipgloss.Color("#FFD75F"),
		Error:   lipgloss.Color("#FF5F5F"),
		Dim:     lipgloss.Color("#6C7A89"),
	}

	// NoColorTUITheme renders with the terminal's default colors.
	NoColorTUITheme = TUITheme{
		Text:    lipgloss.NoColor{},
		Border:  lipgloss.NoColor{},
		Accent:  lipgloss.NoColor{},
		Success: lipgloss.NoColor{},
		Warning: lipgloss.NoColor{},
		Error:   lipgloss.NoColor{},
		Dim:     lipgloss.NoColor{},
	}
)

// GetCurrentTUITheme returns the dashboard palette matching the active theme.
func GetCurrentTUITheme() TUITheme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()

	if currentTheme.Name == NoColorTheme.Name {
		return NoColorTUITheme
	}
	return DarkTUITheme
}

// activeTheme returns the active theme.
func activeTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// setCurrentTheme replaces the active theme.
func setCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// InitTheme picks the theme at start-up. Colors are disabled when noColor is
// set or NO_COLOR is present in the environment (https://no-color.org/).
func InitTheme(noColor bool) {
	if _, exists := os.LookupEnv("NO_COLOR"); noColor || exists {
		setCurrentTheme(NoColorTheme)
		return
	}
	setCurrentTheme(DarkTheme)
}
