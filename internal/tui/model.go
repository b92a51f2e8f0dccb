package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/nedmatch/internal/crossmatch"
	apperrors "github.com/agbru/nedmatch/internal/errors"
	"github.com/agbru/nedmatch/internal/format"
	"github.com/agbru/nedmatch/internal/metrics"
	"github.com/agbru/nedmatch/internal/orchestration"
)

// BatchFunc runs the cross-match. It must pass reporter to the dispatcher
// and onState to the batch so the dashboard can follow the run.
type BatchFunc func(ctx context.Context, reporter orchestration.ProgressReporter, onState func(orchestration.State)) (crossmatch.Summary, error)

// Options describes the run shown on the dashboard.
type Options struct {
	Version string
	RunID   string
	Catalog string
	Total   int
}

// Layout constants for the dashboard.
const (
	headerHeight         = 1
	footerHeight         = 1
	countersHeight       = 8
	minBodyHeight        = 6
	EventsPanelWidthPct  = 45
	SampleInterval       = 500 * time.Millisecond
)

// LayoutManager holds terminal dimensions and derives panel sizes.
type LayoutManager struct {
	width  int
	height int
}

func (l LayoutManager) bodyHeight() int {
	return max(l.height-headerHeight-footerHeight, minBodyHeight)
}

func (l LayoutManager) eventsWidth() int { return l.width * EventsPanelWidthPct / 100 }

func (l LayoutManager) rightWidth() int { return l.width - l.eventsWidth() }

func (l LayoutManager) metricsHeight() int {
	return max(l.bodyHeight()-countersHeight, 4)
}

// ExecutionState holds what the model knows about the run.
type ExecutionState struct {
	cancel   context.CancelFunc
	done     bool
	canceled bool
	result   Result
}

// Model is the root bubbletea model of the dashboard.
type Model struct {
	header   HeaderModel
	counters CountersModel
	events   EventsModel
	metrics  MetricsModel
	footer   FooterModel
	keymap   KeyMap
	memory   *metrics.MemoryCollector

	ExecutionState
	LayoutManager

	paused bool
}

// NewModel creates a dashboard for opts. cancel stops the batch when the
// user quits; it may be nil.
func NewModel(opts Options, cancel context.CancelFunc) Model {
	keys := DefaultKeyMap()
	events := NewEventsModel()
	events.AddInfo("run %s: %s rows from %s", opts.RunID, format.FormatCount(opts.Total), opts.Catalog)
	return Model{
		header:         NewHeaderModel(opts.Version, opts.RunID),
		counters:       NewCountersModel(opts.Total),
		events:         events,
		metrics:        NewMetricsModel(),
		footer:         NewFooterModel(keys),
		keymap:         keys,
		memory:         metrics.NewMemoryCollector(),
		ExecutionState: ExecutionState{cancel: cancel},
	}
}

// Init starts the sampling loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), sampleMemStatsCmd(m.memory), sampleSysStatsCmd())
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layoutPanels()
		return m, nil

	case ProgressMsg:
		m.counters.Update(msg.Snapshot)
		if !m.paused {
			m.events.AddUpdate(msg.Update)
		}
		return m, nil

	case ProgressDoneMsg:
		return m, nil

	case StateMsg:
		m.header.SetState(msg.State.String())
		if !m.paused {
			m.events.AddInfo("batch %s", msg.State)
		}
		return m, nil

	case BatchCompleteMsg:
		m.done = true
		m.result = msg.Result
		m.canceled = apperrors.IsContextError(msg.Result.Err)
		m.header.SetDone()
		m.footer.SetDone(msg.Result.Err, m.canceled)
		if msg.Result.Err != nil {
			m.events.AddError(msg.Result.Err)
		} else {
			s := msg.Result.Summary
			m.events.AddDone("done: found=%d not_found=%d  Run time=%s mins", s.Found, s.NotFound, format.FormatMinutes(s.Duration))
		}
		return m, nil

	case ContextCancelledMsg:
		m.canceled = true
		m.header.SetDone()
		m.footer.SetDone(msg.Err, true)
		return m, tea.Quit

	case TickMsg:
		if m.done {
			return m, nil
		}
		m.metrics.UpdateRate(m.counters.Snapshot().Rate)
		if m.paused {
			return m, tickCmd()
		}
		return m, tea.Batch(sampleMemStatsCmd(m.memory), sampleSysStatsCmd(), tickCmd())

	case MemStatsMsg:
		m.metrics.UpdateMemStats(msg.MemorySnapshot)
		return m, nil

	case SysStatsMsg:
		m.metrics.UpdateSysStats(msg.SystemStats)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Pause):
		m.paused = !m.paused
		m.footer.SetPaused(m.paused)
	case key.Matches(msg, m.keymap.Up):
		m.events.ScrollUp()
	case key.Matches(msg, m.keymap.Down):
		m.events.ScrollDown()
	}
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	right := lipgloss.JoinVertical(lipgloss.Left, m.counters.View(), m.metrics.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.events.View(), right)
	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), body, m.footer.View())
}

func (m *Model) layoutPanels() {
	m.header.SetWidth(m.width)
	m.footer.SetWidth(m.width)
	m.events.SetSize(m.eventsWidth(), m.bodyHeight())
	m.counters.SetSize(m.rightWidth(), countersHeight)
	m.metrics.SetSize(m.rightWidth(), m.metricsHeight())
}

// Run shows the dashboard while batch runs. It returns once the user quits,
// after the batch has stopped. Quitting before the batch finishes cancels
// it.
func Run(ctx context.Context, opts Options, batch BatchFunc) Result {
	initTUIStyles()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ref := &programRef{}
	p := tea.NewProgram(NewModel(opts, cancel), tea.WithAltScreen(), tea.WithContext(ctx))
	ref.SetProgram(p)

	finished := make(chan Result, 1)
	go func() {
		res := runBatch(ctx, batch, ref)
		finished <- res
		ref.Send(BatchCompleteMsg{Result: res})
	}()
	go func() {
		<-ctx.Done()
		ref.Send(ContextCancelledMsg{Err: ctx.Err()})
	}()

	_, err := p.Run()
	cancel()
	res := <-finished
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) && res.Err == nil {
		res.Err = err
		res.ExitCode = apperrors.ExitErrorGeneric
	}
	return res
}

func runBatch(ctx context.Context, batch BatchFunc, sink messageSink) Result {
	summary, err := batch(ctx, &TUIProgressReporter{sink: sink}, stateForwarder(sink))
	return Result{Summary: summary, Err: err, ExitCode: apperrors.ExitCodeFor(err)}
}

func tickCmd() tea.Cmd {
	return tea.Tick(SampleInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func sampleMemStatsCmd(mc *metrics.MemoryCollector) tea.Cmd {
	return func() tea.Msg {
		return MemStatsMsg{mc.Snapshot()}
	}
}

func sampleSysStatsCmd() tea.Cmd {
	return func() tea.Msg {
		return SysStatsMsg{metrics.SampleSystem()}
	}
}
