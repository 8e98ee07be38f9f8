// Package metrics exposes the run counters of the analyzer as Prometheus
// metrics. Each Metrics value owns a private registry, so a batch run can
// dump its numbers to a textfile without touching global state.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "sales_analyzer"

// Metrics holds all Prometheus metrics for one analyzer run.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	Registry *prometheus.Registry

	stageDuration  *prometheus.HistogramVec
	records        *prometheus.CounterVec
	skippedLines   *prometheus.CounterVec
	enrichment     *prometheus.CounterVec
	externalErrors *prometheus.CounterVec
}

// NewMetrics creates a dedicated registry and registers all metrics in it.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		records: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_total",
				Help:      "Records seen at each point of the pipeline.",
			},
			[]string{"state"},
		),
		skippedLines: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "skipped_lines_total",
				Help:      "Input lines skipped by the parser.",
			},
			[]string{"reason"},
		),
		enrichment: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "enrichment_total",
				Help:      "Enriched records by match status.",
			},
			[]string{"status"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "external_errors_total",
				Help:      "Total errors from external services.",
			},
			[]string{"service"},
		),
	}
}

// RecordStageDuration records the duration of a pipeline stage.
func (m *Metrics) RecordStageDuration(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// AddRecords adds n records in the given state (read, parsed, invalid, filtered, ...).
func (m *Metrics) AddRecords(state string, n int) {
	m.records.WithLabelValues(state).Add(float64(n))
}

// AddSkipped adds n skipped lines for a skip reason.
func (m *Metrics) AddSkipped(reason string, n int) {
	m.skippedLines.WithLabelValues(reason).Add(float64(n))
}

// AddEnrichment adds n enriched records with the given match status.
func (m *Metrics) AddEnrichment(status string, n int) {
	m.enrichment.WithLabelValues(status).Add(float64(n))
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// WriteToTextfile writes the registry in the text exposition format, for
// pickup by the node exporter textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

// Records returns the current value of a records counter.
func (m *Metrics) Records(state string) float64 {
	return counterValue(m.records, state)
}

// Skipped returns the current value of a skipped-lines counter.
func (m *Metrics) Skipped(reason string) float64 {
	return counterValue(m.skippedLines, reason)
}

// Enrichment returns the current value of an enrichment counter.
func (m *Metrics) Enrichment(status string) float64 {
	return counterValue(m.enrichment, status)
}

// ExternalErrors returns the current value of an external error counter.
func (m *Metrics) ExternalErrors(service string) float64 {
	return counterValue(m.externalErrors, service)
}

// counterValue extracts the current float64 value from a CounterVec for a given label.
func counterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
