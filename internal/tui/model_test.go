package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/nedmatch/internal/crossmatch"
	"github.com/agbru/nedmatch/internal/metrics"
	"github.com/agbru/nedmatch/internal/orchestration"
	"github.com/agbru/nedmatch/internal/progress"
)

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModelInitializingView(t *testing.T) {
	t.Parallel()
	m := NewModel(Options{RunID: "r1", Total: 3}, nil)
	if m.View() != "Initializing..." {
		t.Errorf("unsized view = %q", m.View())
	}
	if m.Init() == nil {
		t.Error("Init should start sampling")
	}
}

func TestModelProgressFlow(t *testing.T) {
	t.Parallel()
	m := sized(t, NewModel(Options{RunID: "r1", Catalog: "sources.csv", Total: 2}, nil))

	m, _ = update(t, m, StateMsg{State: orchestration.StateDispatching})
	m, _ = update(t, m, ProgressMsg{
		Update:   progress.ProgressUpdate{Index: 1, Completed: 1, Remaining: 1, Total: 2, NotFound: true},
		Snapshot: orchestration.ProgressSnapshot{Total: 2, Completed: 1, Remaining: 1, NotFound: 1, Fraction: 0.5},
	})
	view := m.View()
	for _, want := range []string{"nedmatch", "r1", "dispatching", "num left: 1", "row 1  not in NED", "Running"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m, _ = update(t, m, BatchCompleteMsg{Result: Result{Summary: crossmatch.Summary{Total: 2, Found: 1, NotFound: 1}}})
	if !m.done || m.canceled {
		t.Fatalf("done=%v canceled=%v", m.done, m.canceled)
	}
	view = m.View()
	if !strings.Contains(view, "found=1 not_found=1") || !strings.Contains(view, "Done") {
		t.Errorf("completion not shown:\n%s", view)
	}
	if _, cmd := update(t, m, TickMsg{}); cmd != nil {
		t.Error("ticks must stop once done")
	}
}

func TestModelBatchError(t *testing.T) {
	t.Parallel()
	m := sized(t, NewModel(Options{Total: 1}, nil))
	m, _ = update(t, m, BatchCompleteMsg{Result: Result{Err: errors.New("integrity violated")}})
	if !strings.Contains(m.View(), "integrity violated") || !strings.Contains(m.View(), "Error") {
		t.Errorf("error not shown:\n%s", m.View())
	}

	m = sized(t, NewModel(Options{Total: 1}, nil))
	m, _ = update(t, m, BatchCompleteMsg{Result: Result{Err: context.Canceled}})
	if !m.canceled || !strings.Contains(m.View(), "Canceled") {
		t.Error("context error should mark the run canceled")
	}
}

func TestModelQuitCancels(t *testing.T) {
	t.Parallel()
	canceled := false
	m := NewModel(Options{Total: 1}, func() { canceled = true })
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !canceled {
		t.Error("quit must cancel the batch")
	}
	if cmd == nil {
		t.Fatal("quit must return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit must return tea.Quit")
	}
}

func TestModelPauseAndScroll(t *testing.T) {
	t.Parallel()
	m := sized(t, NewModel(Options{Total: 5}, nil))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	if !m.paused || !strings.Contains(m.View(), "Paused") {
		t.Fatal("p should pause")
	}
	before := m.events.Len()
	m, _ = update(t, m, ProgressMsg{
		Update:   progress.ProgressUpdate{Index: 3, Completed: 1, Remaining: 4, NotFound: true},
		Snapshot: orchestration.ProgressSnapshot{Total: 5, Completed: 1, Remaining: 4, NotFound: 1, Fraction: 0.2},
	})
	if m.events.Len() != before {
		t.Error("events must not be logged while paused")
	}
	if m.counters.Snapshot().Remaining != 4 {
		t.Error("counters keep updating while paused")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.events.offset != 0 {
		t.Errorf("offset = %d after up+down", m.events.offset)
	}
}

func TestModelContextCancelled(t *testing.T) {
	t.Parallel()
	m := NewModel(Options{Total: 1}, nil)
	m, cmd := update(t, m, ContextCancelledMsg{Err: context.Canceled})
	if !m.canceled || cmd == nil {
		t.Error("parent cancellation should quit")
	}
}

func TestModelSamples(t *testing.T) {
	t.Parallel()
	m := sized(t, NewModel(Options{Total: 1}, nil))
	m, _ = update(t, m, MemStatsMsg{metrics.MemorySnapshot{HeapAlloc: 2048, PeakHeapAlloc: 4096, Goroutines: 7}})
	m, _ = update(t, m, SysStatsMsg{metrics.SystemStats{CPUPercent: 50, MemPercent: 25}})
	view := m.View()
	for _, want := range []string{"2.0 KiB", "peak 4.0 KiB", "goroutines 7", " 50.0%", " 25.0%"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if _, cmd := update(t, m, TickMsg{}); cmd == nil {
		t.Error("tick should schedule sampling while running")
	}
}
