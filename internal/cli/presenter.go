package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	apperrors "github.com/agbru/nedmatch/internal/errors"
	"github.com/agbru/nedmatch/internal/crossmatch"
	"github.com/agbru/nedmatch/internal/format"
	"github.com/agbru/nedmatch/internal/lookup"
	"github.com/agbru/nedmatch/internal/metrics"
	"github.com/agbru/nedmatch/internal/ui"
)

// RunInfo describes a run for the configuration banner.
type RunInfo struct {
	RunID           string
	Catalog         string
	Output          string
	Format          string
	Rows            int
	SourceGroups    []string
	Workers         int
	Radius          lookup.Angle
	RedshiftCeiling float64
	Endpoint        string
}

// PrintExecutionConfig displays the run configuration before dispatch.
func PrintExecutionConfig(info RunInfo, out io.Writer) {
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Run %s%s%s: cross-matching %s%s%s rows of %s%s%s.\n",
		ui.ColorSecondary(), info.RunID, ui.ColorReset(),
		ui.ColorPrimary(), format.FormatCount(info.Rows), ui.ColorReset(),
		ui.ColorPrimary(), info.Catalog, ui.ColorReset())
	if len(info.SourceGroups) > 0 {
		fmt.Fprintf(out, "Source groups (%d): %s.\n", len(info.SourceGroups), strings.Join(info.SourceGroups, ", "))
	}
	fmt.Fprintf(out, "Search radius %s%s%s, redshift below %s%g%s, %s%d%s workers against %s.\n",
		ui.ColorInfo(), info.Radius, ui.ColorReset(),
		ui.ColorInfo(), info.RedshiftCeiling, ui.ColorReset(),
		ui.ColorInfo(), info.Workers, ui.ColorReset(),
		info.Endpoint)
	fmt.Fprintf(out, "Environment: %d logical processors, Go %s.\n", runtime.NumCPU(), runtime.Version())
	if info.Output != "" {
		fmt.Fprintf(out, "Output: %s (%s).\n", info.Output, info.Format)
	} else {
		fmt.Fprintf(out, "Output: none, summary only.\n")
	}
	fmt.Fprintf(out, "\n--- Starting Lookups ---\n")
}

// DisplaySummary prints the counts of a finished batch and its run time in
// minutes.
func DisplaySummary(s crossmatch.Summary, out io.Writer) {
	fmt.Fprintf(out, "\n--- Cross-match Summary ---\n")
	rows := []struct {
		label string
		color string
		value int
	}{
		{"Rows", ui.ColorPrimary(), s.Total},
		{"Found in NED", ui.ColorSuccess(), s.Found},
		{"Not in NED", ui.ColorWarning(), s.NotFound},
		{"Lookup failures", ui.ColorError(), s.Failed},
	}
	width := 0
	for _, r := range rows {
		if n := len(format.FormatCount(r.value)); n > width {
			width = n
		}
	}
	for _, r := range rows {
		fmt.Fprintf(out, "  %-16s %s%*s%s\n", r.label+":", r.color, width, format.FormatCount(r.value), ui.ColorReset())
	}
	if s.Failed > 0 {
		fmt.Fprintf(out, "  %sFailed lookups are counted as not in NED.%s\n", ui.ColorSecondary(), ui.ColorReset())
	}
	fmt.Fprintf(out, "Run time=%s mins\n", format.FormatMinutes(s.Duration))
}

// FormatQuietSummary returns the one-line summary used in quiet mode.
func FormatQuietSummary(s crossmatch.Summary) string {
	return fmt.Sprintf("found=%d not_found=%d", s.Found, s.NotFound)
}

// DisplayQuietSummary writes FormatQuietSummary followed by a newline.
func DisplayQuietSummary(s crossmatch.Summary, out io.Writer) {
	fmt.Fprintln(out, FormatQuietSummary(s))
}

// DisplaySaved confirms where the augmented catalog was written.
func DisplaySaved(location string, rows int, out io.Writer) {
	fmt.Fprintf(out, "\n%s✓ %s rows saved to: %s%s%s\n",
		ui.ColorSuccess(), format.FormatCount(rows), ui.ColorPrimary(), location, ui.ColorReset())
}

// DisplayMemoryStats shows memory statistics after a run.
func DisplayMemoryStats(snap metrics.MemorySnapshot, out io.Writer) {
	fmt.Fprintf(out, "\nMemory Stats:\n")
	fmt.Fprintf(out, "  Peak heap:       %s\n", format.FormatBytes(snap.PeakHeapAlloc))
	fmt.Fprintf(out, "  Obtained from OS: %s\n", format.FormatBytes(snap.Sys))
	fmt.Fprintf(out, "  GC cycles:       %d\n", snap.NumGC)
	fmt.Fprintf(out, "  GC pause total:  %.2fms\n", float64(snap.PauseTotalNs)/1e6)
}

// CLIColorProvider feeds the active theme to apperrors.HandleRunError.
type CLIColorProvider struct{}

var _ apperrors.ColorProvider = CLIColorProvider{}

func (CLIColorProvider) Red() string    { return ui.ColorError() }
func (CLIColorProvider) Yellow() string { return ui.ColorWarning() }
func (CLIColorProvider) Reset() string  { return ui.ColorReset() }

// HandleError prints err with the active theme and returns the exit code.
func HandleError(err error, duration time.Duration, out io.Writer) int {
	return apperrors.HandleRunError(err, duration, out, CLIColorProvider{})
}
