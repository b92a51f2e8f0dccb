package orchestration

import (
	"time"

	"github.com/agbru/nedmatch/internal/format"
	"github.com/agbru/nedmatch/internal/progress"
)

// ProgressTracker folds progress updates into running totals and a time-left
// estimate. Both the CLI and the TUI use it so the bookkeeping lives in one
// place. It is not safe for concurrent use; each reporter owns one.
type ProgressTracker struct {
	eta   *format.ETAEstimator
	total int
	snap  ProgressSnapshot
}

// ProgressSnapshot is the state of a batch after some number of updates.
type ProgressSnapshot struct {
	Total     int
	Completed int
	Remaining int
	Found     int
	NotFound  int
	// Failed is the subset of NotFound whose lookup failed.
	Failed int
	// Fraction is Completed/Total, 1 for an empty batch.
	Fraction float64
	// ETA is the estimated time left, 0 while unknown.
	ETA time.Duration
	// Rate is the smoothed completion rate in rows per second.
	Rate float64
}

// NewProgressTracker creates a tracker for a batch of total rows.
func NewProgressTracker(total int) *ProgressTracker {
	t := &ProgressTracker{eta: format.NewETAEstimator(total), total: total}
	t.snap = ProgressSnapshot{Total: total, Remaining: total, Fraction: fraction(0, total)}
	return t
}

// Update processes a single progress update and returns the new snapshot.
// Updates arriving out of order never increase Remaining.
func (t *ProgressTracker) Update(u progress.ProgressUpdate) ProgressSnapshot {
	if u.NotFound {
		t.snap.NotFound++
		if u.Failed {
			t.snap.Failed++
		}
	} else {
		t.snap.Found++
	}
	if u.Completed > t.snap.Completed {
		t.snap.Completed = u.Completed
		t.snap.Remaining = t.total - u.Completed
		t.snap.Fraction = fraction(u.Completed, t.total)
		t.snap.ETA = t.eta.Observe(u.Completed)
		t.snap.Rate = t.eta.Rate()
	}
	return t.snap
}

// Snapshot returns the current state without updating.
func (t *ProgressTracker) Snapshot() ProgressSnapshot { return t.snap }

func fraction(completed, total int) float64 {
	if total <= 0 {
		return 1
	}
	return float64(completed) / float64(total)
}
