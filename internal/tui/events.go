package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/agbru/nedmatch/internal/progress"
)

// maxEvents bounds the event log.
const maxEvents = 500

type event struct {
	at    time.Time
	text  string
	style int
}

const (
	eventInfo = iota
	eventNotFound
	eventFailed
	eventDone
)

// EventsModel is a scrollable log of notable rows and batch transitions.
// Found rows are not listed; they are the common case.
type EventsModel struct {
	entries []event
	offset  int // lines scrolled up from the bottom
	width   int
	height  int
}

// NewEventsModel creates an empty log.
func NewEventsModel() EventsModel { return EventsModel{} }

// SetSize updates dimensions.
func (e *EventsModel) SetSize(w, h int) { e.width, e.height = w, h }

func (e *EventsModel) add(style int, format string, args ...any) {
	e.entries = append(e.entries, event{at: time.Now(), text: fmt.Sprintf(format, args...), style: style})
	if len(e.entries) > maxEvents {
		e.entries = e.entries[len(e.entries)-maxEvents:]
	}
}

// AddInfo appends a plain line.
func (e *EventsModel) AddInfo(format string, args ...any) { e.add(eventInfo, format, args...) }

// AddUpdate records a row that was not found or whose lookup failed.
func (e *EventsModel) AddUpdate(u progress.ProgressUpdate) {
	switch {
	case u.Failed:
		e.add(eventFailed, "row %d  lookup failed", u.Index)
	case u.NotFound:
		e.add(eventNotFound, "row %d  not in NED", u.Index)
	}
}

// AddDone appends a completion line.
func (e *EventsModel) AddDone(format string, args ...any) { e.add(eventDone, format, args...) }

// AddError appends an error line.
func (e *EventsModel) AddError(err error) { e.add(eventFailed, "error: %v", err) }

// Len returns the number of entries.
func (e EventsModel) Len() int { return len(e.entries) }

// ScrollUp moves the view one line towards older entries.
func (e *EventsModel) ScrollUp() {
	if e.offset < len(e.entries)-1 {
		e.offset++
	}
}

// ScrollDown moves the view one line towards newer entries.
func (e *EventsModel) ScrollDown() {
	if e.offset > 0 {
		e.offset--
	}
}

// View renders the log at its configured height.
func (e EventsModel) View() string {
	visible := max(e.height-3, 1)
	end := len(e.entries) - e.offset
	start := max(end-visible, 0)

	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Events"))
	for _, ev := range e.entries[start:end] {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(ev.at.Format("15:04:05")))
		b.WriteString(" ")
		switch ev.style {
		case eventNotFound:
			b.WriteString(notFoundStyle.Render(ev.text))
		case eventFailed:
			b.WriteString(failedStyle.Render(ev.text))
		case eventDone:
			b.WriteString(foundStyle.Render(ev.text))
		default:
			b.WriteString(ev.text)
		}
	}

	style := panelStyle
	if e.width > 2 {
		style = style.Width(e.width - 2).MaxWidth(e.width)
	}
	if e.height > 2 {
		style = style.Height(e.height - 2)
	}
	return style.Render(b.String())
}
