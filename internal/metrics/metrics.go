// Package metrics exposes Prometheus collectors for clean runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Clean outcome labels.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded" // a stage failed and was skipped
	StatusInvalid  = "invalid"  // unreadable input
	StatusRejected = "rejected" // no limiter slot
	StatusTimeout  = "timeout"
)

// Metrics holds the collectors on a private registry, so tests and multiple
// servers in one process do not collide on the default registry.
type Metrics struct {
	registry *prometheus.Registry

	cleansTotal   *prometheus.CounterVec
	rowsIn        prometheus.Counter
	rowsOut       prometheus.Counter
	rowsRemoved   prometheus.Counter
	diagnostics   *prometheus.CounterVec
	cleanDuration prometheus.Histogram
	activeCleans  prometheus.Gauge
	storedRuns    *prometheus.CounterVec
}

// New creates and registers the collectors under namespace.
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cleansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleans_total",
			Help:      "Clean runs by outcome",
		}, []string{"status"}),
		rowsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_in_total",
			Help:      "Rows read from uploaded files",
		}),
		rowsOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_out_total",
			Help:      "Rows in cleaned tables",
		}),
		rowsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_removed_total",
			Help:      "Rows dropped by cleaning",
		}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Diagnostics emitted by stage and code",
		}, []string{"stage", "code"}),
		cleanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "clean_duration_seconds",
			Help:      "Time to read and clean one file",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		activeCleans: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_cleans",
			Help:      "Cleans currently holding a limiter slot",
		}),
		storedRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Run store operations by kind and result",
		}, []string{"op", "result"}),
	}

	m.registry.MustRegister(
		m.cleansTotal,
		m.rowsIn,
		m.rowsOut,
		m.rowsRemoved,
		m.diagnostics,
		m.cleanDuration,
		m.activeCleans,
		m.storedRuns,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// CleanStarted marks a clean as holding a slot. Pair with CleanFinished.
func (m *Metrics) CleanStarted() {
	m.activeCleans.Inc()
}

// CleanFinished releases the active gauge.
func (m *Metrics) CleanFinished() {
	m.activeCleans.Dec()
}

// ObserveClean records one clean's outcome and row counts.
func (m *Metrics) ObserveClean(status string, rowsIn, rowsOut int, d time.Duration) {
	m.cleansTotal.WithLabelValues(status).Inc()
	m.rowsIn.Add(float64(rowsIn))
	m.rowsOut.Add(float64(rowsOut))
	if removed := rowsIn - rowsOut; removed > 0 {
		m.rowsRemoved.Add(float64(removed))
	}
	m.cleanDuration.Observe(d.Seconds())
}

// ObserveDiagnostic counts one diagnostic.
func (m *Metrics) ObserveDiagnostic(stage, code string) {
	m.diagnostics.WithLabelValues(stage, code).Inc()
}

// ObserveStore counts a run store operation.
func (m *Metrics) ObserveStore(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storedRuns.WithLabelValues(op, result).Inc()
}
