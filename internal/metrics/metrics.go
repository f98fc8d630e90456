// Package metrics exposes crawl and upload counters for Prometheus.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
)

// Ensure Metrics implements the interface.
var _ driven.CycleObserver = (*Metrics)(nil)

const namespace = "fscrawler"

// Metrics holds the collectors of one process.
type Metrics struct {
	registry *prometheus.Registry

	cycles        *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
	documents     *prometheus.CounterVec
	failures      *prometheus.CounterVec
	lastSuccess   *prometheus.GaugeVec
	uploads       *prometheus.CounterVec
}

// New creates the collectors on a private registry, together with the
// Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Crawl cycles by job and outcome.",
		}, []string{"job", "outcome"}),
		cycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of crawl cycles.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		}, []string{"job"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Crawled items by job and action.",
		}, []string{"job", "action"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "item_failures_total",
			Help:      "Items that failed extraction or publishing.",
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "End time of the last successful cycle.",
		}, []string{"job"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Uploaded files by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cycles,
		m.cycleDuration,
		m.documents,
		m.failures,
		m.lastSuccess,
		m.uploads,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collected metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveCycle records the outcome of a finished crawl cycle.
func (m *Metrics) ObserveCycle(job string, stats *domain.CycleStats, err error) {
	m.cycles.WithLabelValues(job, cycleOutcome(err)).Inc()
	if stats == nil {
		return
	}
	if d := stats.Duration(); d > 0 {
		m.cycleDuration.WithLabelValues(job).Observe(d.Seconds())
	}
	m.documents.WithLabelValues(job, "scanned").Add(float64(stats.Scanned))
	m.documents.WithLabelValues(job, "filtered").Add(float64(stats.Filtered))
	m.documents.WithLabelValues(job, "unchanged").Add(float64(stats.Unchanged))
	m.documents.WithLabelValues(job, "indexed").Add(float64(stats.Indexed))
	m.documents.WithLabelValues(job, "folders").Add(float64(stats.Folders))
	m.documents.WithLabelValues(job, "deleted").Add(float64(stats.Deleted))
	m.failures.WithLabelValues(job).Add(float64(len(stats.Failures)))
	if err == nil && !stats.EndedAt.IsZero() {
		m.lastSuccess.WithLabelValues(job).Set(float64(stats.EndedAt.Unix()))
	}
}

// ObserveUpload records the outcome of one upload.
func (m *Metrics) ObserveUpload(err error) {
	m.uploads.WithLabelValues(uploadOutcome(err)).Inc()
}

func cycleOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrCycleAborted):
		return "aborted"
	default:
		return "failure"
	}
}

func uploadOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrMalformedOverlay), errors.Is(err, domain.ErrInvalidInput):
		return "rejected"
	default:
		return "failure"
	}
}
