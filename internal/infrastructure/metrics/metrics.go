package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors of the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ConversionsTotal  *prometheus.CounterVec
	AlignmentSteps    prometheus.Histogram
	SnapshotsImported prometheus.Counter
	ImportRunsTotal   *prometheus.CounterVec
	CacheLookupsTotal *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		ConversionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conversions_total",
				Help: "Total number of currency conversions by outcome",
			},
			[]string{"outcome"},
		),

		AlignmentSteps: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rate_alignment_steps",
				Help:    "Days stepped back before both snapshots shared a date",
				Buckets: []float64{0, 1, 2, 3, 5, 7, 10, 14, 30},
			},
		),

		SnapshotsImported: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_snapshots_imported_total",
				Help: "Total number of rate snapshots inserted from the feed",
			},
		),

		ImportRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_import_runs_total",
				Help: "Total number of feed import runs by outcome",
			},
			[]string{"outcome"},
		),

		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_cache_lookups_total",
				Help: "Snapshot cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// ObserveConversion counts a conversion attempt
func (m *Metrics) ObserveConversion(outcome string) {
	if m == nil {
		return
	}
	m.ConversionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveAlignment records how many days the resolver stepped back
func (m *Metrics) ObserveAlignment(steps int) {
	if m == nil {
		return
	}
	m.AlignmentSteps.Observe(float64(steps))
}

// ObserveImport records the outcome of a feed import
func (m *Metrics) ObserveImport(inserted int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ImportRunsTotal.WithLabelValues("error").Inc()
		return
	}
	m.ImportRunsTotal.WithLabelValues("success").Inc()
	m.SnapshotsImported.Add(float64(inserted))
}

// ObserveCache counts a cache hit or miss
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookupsTotal.WithLabelValues("miss").Inc()
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(path, method, statusClass string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(path, method).Observe(seconds)
	m.HTTPRequestsTotal.WithLabelValues(path, method, statusClass).Inc()
}
