// Package progress defines the progress events published by the worker pool
// and the polling monitor that turns them into a remaining-count display.
package progress

import "time"

// ProgressUpdate is published once per completed catalog row.
type ProgressUpdate struct {
	// Index is the catalog row that just completed.
	Index int
	// Completed is the number of rows finished so far, including this one.
	Completed int
	// Remaining is Total - Completed.
	Remaining int
	// Total is the number of rows in the batch.
	Total int
	// NotFound reports the row's flag.
	NotFound bool
	// Failed reports whether the row's lookup failed.
	Failed bool
}

// Fraction returns the completed share of the batch in [0, 1].
func (u ProgressUpdate) Fraction() float64 {
	if u.Total <= 0 {
		return 1
	}
	return float64(u.Completed) / float64(u.Total)
}

// DefaultPollInterval is the refresh period of the remaining-count display.
const DefaultPollInterval = 250 * time.Millisecond

// Poll consumes updates until the channel is closed, calling report with the
// current remaining count once per interval and a final time after the
// channel closes. It returns as soon as the final report is made.
//
// report runs on the calling goroutine and must not block for long.
func Poll(updates <-chan ProgressUpdate, total int, interval time.Duration, report func(remaining int)) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	remaining := total
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	report(remaining)
	for {
		select {
		case u, ok := <-updates:
			if !ok {
				report(remaining)
				return
			}
			if u.Remaining < remaining {
				remaining = u.Remaining
			}
		case <-ticker.C:
			report(remaining)
		}
	}
}

// Drain reads all updates from the channel without processing.
func Drain(updates <-chan ProgressUpdate) {
	for range updates {
	}
}
