package tui

import (
	"time"

	"github.com/agbru/nedmatch/internal/crossmatch"
	"github.com/agbru/nedmatch/internal/metrics"
	"github.com/agbru/nedmatch/internal/orchestration"
	"github.com/agbru/nedmatch/internal/progress"
)

// ProgressMsg carries one completed row and the running totals after it.
type ProgressMsg struct {
	Update   progress.ProgressUpdate
	Snapshot orchestration.ProgressSnapshot
}

// ProgressDoneMsg is sent when the progress channel closes.
type ProgressDoneMsg struct{}

// StateMsg reports a batch state transition.
type StateMsg struct {
	State orchestration.State
}

// BatchCompleteMsg is sent once the batch function returns.
type BatchCompleteMsg struct {
	Result Result
}

// ContextCancelledMsg is sent when the parent context is canceled.
type ContextCancelledMsg struct {
	Err error
}

// TickMsg drives periodic sampling.
type TickMsg time.Time

// MemStatsMsg carries a runtime memory reading.
type MemStatsMsg struct {
	metrics.MemorySnapshot
}

// SysStatsMsg carries a system-wide CPU and memory reading.
type SysStatsMsg struct {
	metrics.SystemStats
}

// Result is what a dashboard session produced.
type Result struct {
	Summary  crossmatch.Summary
	Err      error
	ExitCode int
}
