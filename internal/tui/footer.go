package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// FooterModel shows the key hints and the run status.
type FooterModel struct {
	keys     KeyMap
	width    int
	paused   bool
	done     bool
	canceled bool
	failed   bool
}

// NewFooterModel creates a footer for keys.
func NewFooterModel(keys KeyMap) FooterModel { return FooterModel{keys: keys} }

// SetWidth updates the available width.
func (f *FooterModel) SetWidth(w int) { f.width = w }

// SetPaused toggles the paused indicator.
func (f *FooterModel) SetPaused(p bool) { f.paused = p }

// SetDone marks the run finished, failed when err is non-nil.
func (f *FooterModel) SetDone(err error, canceled bool) {
	f.done = true
	f.failed = err != nil && !canceled
	f.canceled = canceled
}

// View renders the footer.
func (f FooterModel) View() string {
	var hints []string
	for _, b := range []key.Binding{f.keys.Quit, f.keys.Pause, f.keys.Up, f.keys.Down} {
		h := b.Help()
		hints = append(hints, footerKeyStyle.Render(h.Key)+" "+footerDescStyle.Render(h.Desc))
	}

	var status string
	switch {
	case f.canceled:
		status = statusPausedStyle.Render("Canceled")
	case f.failed:
		status = statusErrorStyle.Render("Error")
	case f.done:
		status = statusDoneStyle.Render("Done")
	case f.paused:
		status = statusPausedStyle.Render("Paused")
	default:
		status = statusRunningStyle.Render("Running")
	}
	return " " + padRight(strings.Join(hints, "  "), max(f.width-12, 0)) + status
}
