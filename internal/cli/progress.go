package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/nedmatch/internal/format"
	"github.com/agbru/nedmatch/internal/logging"
	"github.com/agbru/nedmatch/internal/orchestration"
	"github.com/agbru/nedmatch/internal/progress"
	"github.com/agbru/nedmatch/internal/ui"
)

// CLIProgressReporter implements orchestration.ProgressReporter for the
// command line. On a terminal it keeps a single "num left: N" line updated
// behind a spinner; otherwise it writes a structured log line per period.
type CLIProgressReporter struct {
	// Interval is the refresh period. Zero means progress.DefaultPollInterval.
	Interval time.Duration
	// Logger receives progress lines when out is not a terminal.
	Logger logging.Logger
	// Interactive overrides terminal detection when non-nil.
	Interactive *bool
}

// Verify that CLIProgressReporter implements orchestration.ProgressReporter.
var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress shows the remaining row count until progressChan closes.
func (r CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, total int, out io.Writer) {
	defer wg.Done()
	if total <= 0 {
		progress.Drain(progressChan)
		return
	}

	interactive := IsTerminal(out)
	if r.Interactive != nil {
		interactive = *r.Interactive
	}
	if !interactive {
		r.logProgress(progressChan, total)
		return
	}

	s := newSpinner(spinner.WithWriter(out))
	eta := format.NewETAEstimator(total)
	last := total
	s.UpdateSuffix(FormatProgressLine(total, total, 0))
	s.Start()
	progress.Poll(progressChan, total, r.Interval, func(remaining int) {
		last = remaining
		s.UpdateSuffix(FormatProgressLine(remaining, total, eta.Observe(total-remaining)))
	})
	s.Stop()
	fmt.Fprintf(out, "%snum left: %d%s\n", ui.ColorSuccess(), last, ui.ColorReset())
}

func (r CLIProgressReporter) logProgress(progressChan <-chan progress.ProgressUpdate, total int) {
	logger := r.Logger
	if logger == nil {
		logger = logging.Nop
	}
	interval := r.Interval
	if interval < LogProgressInterval {
		interval = LogProgressInterval
	}
	progress.Poll(progressChan, total, interval, func(remaining int) {
		logger.Info("progress", logging.Int("remaining", remaining), logging.Int("total", total))
	})
}

// FormatProgressLine renders the spinner suffix:
// " num left: 12  [████░░░░] 50.0% ETA: 3s".
func FormatProgressLine(remaining, total int, eta time.Duration) string {
	fraction := 1.0
	if total > 0 {
		fraction = float64(total-remaining) / float64(total)
	}
	return fmt.Sprintf(" num left: %s  %s", format.FormatCount(remaining),
		format.FormatProgressBarWithETA(fraction, eta, ProgressBarWidth))
}
