package orchestration

import (
	"io"
	"sync"

	"github.com/agbru/nedmatch/internal/progress"
)

// ProgressReporter defines the interface for displaying batch progress.
// This interface decouples the orchestration layer from the presentation
// layer: implementations render spinners, dashboards or log lines while the
// orchestration layer only publishes events.
type ProgressReporter interface {
	// DisplayProgress consumes updates until progressChan is closed, then
	// calls wg.Done. It runs on its own goroutine and must keep draining the
	// channel, otherwise the workers block.
	//
	// Parameters:
	//   - wg: A WaitGroup to signal when display is complete.
	//   - progressChan: Channel receiving one update per finished row.
	//   - total: The number of rows in the batch.
	//   - out: The writer for progress output.
	DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, total int, out io.Writer)
}

// ProgressReporterFunc is a function adapter that implements ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, total int, out io.Writer)

// DisplayProgress calls the underlying function.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, total int, out io.Writer) {
	f(wg, progressChan, total, out)
}

// NullProgressReporter is a no-op implementation of ProgressReporter.
// It drains the progress channel without displaying anything.
// Useful for quiet mode or testing.
type NullProgressReporter struct{}

// DisplayProgress drains the channel without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, _ int, _ io.Writer) {
	defer wg.Done()
	progress.Drain(progressChan)
}

// ObservedReporter returns a reporter that calls observe for every update
// before handing it to next. observe runs on the reporter goroutine and
// must not block.
func ObservedReporter(next ProgressReporter, observe func(progress.ProgressUpdate)) ProgressReporter {
	if next == nil {
		next = NullProgressReporter{}
	}
	return ProgressReporterFunc(func(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, total int, out io.Writer) {
		defer wg.Done()
		inner := make(chan progress.ProgressUpdate, cap(progressChan))
		var innerWg sync.WaitGroup
		innerWg.Add(1)
		go next.DisplayProgress(&innerWg, inner, total, out)
		for u := range progressChan {
			observe(u)
			inner <- u
		}
		close(inner)
		innerWg.Wait()
	})
}
