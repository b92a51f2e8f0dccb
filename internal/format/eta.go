package format

import (
	"fmt"
	"strings"
	"time"
)

// MaxETA caps estimates so a stalled service does not produce absurd values.
const MaxETA = 24 * time.Hour

// rateSmoothing is the weight of the newest sample in the moving average.
const rateSmoothing = 0.3

// ETAEstimator estimates the time left in a batch from the number of
// completed rows. It smooths the completion rate with an exponential moving
// average. It is not safe for concurrent use.
type ETAEstimator struct {
	total         int
	rate          float64 // rows per second
	lastCompleted int
	lastTime      time.Time
	now           func() time.Time
}

// NewETAEstimator creates an estimator for a batch of total rows.
func NewETAEstimator(total int) *ETAEstimator {
	e := &ETAEstimator{total: total, now: time.Now}
	e.lastTime = e.now()
	return e
}

// Observe records that completed rows are done and returns the new estimate.
func (e *ETAEstimator) Observe(completed int) time.Duration {
	now := e.now()
	elapsed := now.Sub(e.lastTime).Seconds()
	delta := completed - e.lastCompleted
	if elapsed > 0 && delta > 0 {
		sample := float64(delta) / elapsed
		if e.rate == 0 {
			e.rate = sample
		} else {
			e.rate = rateSmoothing*sample + (1-rateSmoothing)*e.rate
		}
		e.lastCompleted = completed
		e.lastTime = now
	}
	return e.ETA()
}

// Rate returns the smoothed completion rate in rows per second.
func (e *ETAEstimator) Rate() float64 { return e.rate }

// ETA returns the current estimate, 0 while no rate is known.
func (e *ETAEstimator) ETA() time.Duration {
	remaining := e.total - e.lastCompleted
	if remaining <= 0 || e.rate <= 0 {
		return 0
	}
	secs := float64(remaining) / e.rate
	if secs >= MaxETA.Seconds() {
		return MaxETA
	}
	return time.Duration(secs * float64(time.Second))
}

// FormatETA renders an estimate compactly: "45s", "2m30s", "1h15m".
func FormatETA(eta time.Duration) string {
	if eta <= 0 {
		return "calculating..."
	}
	if eta < time.Second {
		return "< 1s"
	}
	eta = eta.Round(time.Second)
	h := int(eta / time.Hour)
	m := int((eta % time.Hour) / time.Minute)
	s := int((eta % time.Minute) / time.Second)
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// ProgressBar renders a bar of length cells for a fraction clamped to [0, 1].
func ProgressBar(fraction float64, length int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * float64(length))
	return strings.Repeat("█", filled) + strings.Repeat("░", length-filled)
}

// FormatProgressBarWithETA renders "[bar] 42.0% ETA: 1m5s".
func FormatProgressBarWithETA(fraction float64, eta time.Duration, width int) string {
	pct := fraction * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	etaStr := FormatETA(eta)
	if fraction >= 1 {
		etaStr = "done"
	}
	return fmt.Sprintf("[%s] %5.1f%% ETA: %s", ProgressBar(fraction, width), pct, etaStr)
}
