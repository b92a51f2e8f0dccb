package tui

import (
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/nedmatch/internal/orchestration"
	"github.com/agbru/nedmatch/internal/progress"
)

// programRef is a shared reference to the tea.Program. bubbletea copies the
// model on every Update, so goroutines outside the program hold this pointer
// instead.
type programRef struct {
	mu      sync.RWMutex
	program *tea.Program
}

// SetProgram sets the tea.Program reference.
func (r *programRef) SetProgram(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

// Send forwards msg to the program. Messages are dropped until a program is
// set.
func (r *programRef) Send(msg tea.Msg) {
	r.mu.RLock()
	p := r.program
	r.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// messageSink receives dashboard messages. *programRef implements it; tests
// substitute a recorder.
type messageSink interface {
	Send(msg tea.Msg)
}

// TUIProgressReporter implements orchestration.ProgressReporter by turning
// each update into a ProgressMsg.
type TUIProgressReporter struct {
	sink messageSink
}

var _ orchestration.ProgressReporter = (*TUIProgressReporter)(nil)

// DisplayProgress drains the progress channel and forwards every update.
func (t *TUIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, total int, _ io.Writer) {
	defer wg.Done()
	if total <= 0 {
		progress.Drain(progressChan)
		t.sink.Send(ProgressDoneMsg{})
		return
	}

	tracker := orchestration.NewProgressTracker(total)
	for update := range progressChan {
		t.sink.Send(ProgressMsg{Update: update, Snapshot: tracker.Update(update)})
	}
	t.sink.Send(ProgressDoneMsg{})
}

// stateForwarder returns an OnStateChange callback that reports transitions
// to the dashboard.
func stateForwarder(sink messageSink) func(orchestration.State) {
	return func(s orchestration.State) {
		sink.Send(StateMsg{State: s})
	}
}
