package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nedmatch"

// Recorder holds the metrics of one process on its own registry.
// All methods are safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	lookups        *prometheus.CounterVec
	lookupDuration prometheus.Histogram
	rowsTotal      prometheus.Gauge
	rowsRemaining  prometheus.Gauge
	batchState     *prometheus.GaugeVec
}

// NewRecorder creates a Recorder with the Go runtime and process collectors
// registered alongside the batch metrics.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Recorder{
		registry: registry,
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Finished lookups by outcome (matched, no_qualifying, lookup_failed).",
		}, []string{"outcome"}),
		lookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Time spent on one row, lookup included.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		}),
		rowsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Rows in the current batch.",
		}),
		rowsRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_remaining",
			Help:      "Rows of the current batch not yet finished.",
		}),
		batchState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_state",
			Help:      "1 for the current state of the batch, 0 otherwise.",
		}, []string{"state"}),
	}
	registry.MustRegister(r.lookups, r.lookupDuration, r.rowsTotal, r.rowsRemaining, r.batchState)
	return r
}

// ObserveLookup counts one finished row.
func (r *Recorder) ObserveLookup(outcome string, elapsed time.Duration) {
	r.lookups.WithLabelValues(outcome).Inc()
	r.lookupDuration.Observe(elapsed.Seconds())
}

// StartBatch sets the row gauges for a new batch of total rows.
func (r *Recorder) StartBatch(total int) {
	r.rowsTotal.Set(float64(total))
	r.rowsRemaining.Set(float64(total))
}

// SetRemaining updates the remaining-rows gauge.
func (r *Recorder) SetRemaining(remaining int) {
	r.rowsRemaining.Set(float64(remaining))
}

// SetState marks state as the current batch state.
func (r *Recorder) SetState(state string) {
	r.batchState.Reset()
	r.batchState.WithLabelValues(state).Set(1)
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
