package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Sync pipeline metrics
	SyncRunsTotal   *prometheus.CounterVec
	SyncDuration    *prometheus.HistogramVec
	SyncsInProgress prometheus.Gauge
	PollAttempts    *prometheus.HistogramVec
	RowsUpserted    *prometheus.CounterVec
	RowsDropped     *prometheus.CounterVec

	// External API metrics
	PlatformCalls    *prometheus.CounterVec
	PlatformDuration *prometheus.HistogramVec
	PlatformFailures *prometheus.CounterVec

	// Aggregation metrics
	AggregationQueries *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		SyncRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sync_runs_total",
				Help: "Total number of sync runs by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),

		SyncDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sync_duration_seconds",
				Help:    "Sync run duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"mode"},
		),

		SyncsInProgress: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "syncs_in_progress",
				Help: "Number of sync runs currently in progress",
			},
		),

		PollAttempts: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "report_poll_attempts",
				Help:    "Poll attempts used per report job",
				Buckets: []float64{1, 2, 3, 5, 10, 20, 40, 60},
			},
			[]string{"outcome"},
		),

		RowsUpserted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "metric_rows_upserted_total",
				Help: "Total number of daily metric rows upserted",
			},
			[]string{"source"},
		),

		RowsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_rows_dropped_total",
				Help: "Total number of report rows dropped during normalization",
			},
			[]string{"reason"},
		),

		PlatformCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "platform_api_calls_total",
				Help: "Total number of ad platform API calls",
			},
			[]string{"operation", "status"},
		),

		PlatformDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "platform_api_duration_seconds",
				Help:    "Ad platform API call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		PlatformFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "platform_api_failures_total",
				Help: "Total number of ad platform API failures",
			},
			[]string{"operation", "error_type"},
		),

		AggregationQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aggregation_queries_total",
				Help: "Total number of dashboard aggregation queries",
			},
			[]string{"view"},
		),
	}
}

// HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Sync run metrics
func (m *Metrics) RecordSyncRun(mode, outcome string, duration time.Duration) {
	m.SyncRunsTotal.WithLabelValues(mode, outcome).Inc()
	m.SyncDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// Poll attempt metrics
func (m *Metrics) RecordPollAttempts(outcome string, attempts int) {
	m.PollAttempts.WithLabelValues(outcome).Observe(float64(attempts))
}

// Upserted row metrics
func (m *Metrics) RecordRowsUpserted(source string, count int) {
	m.RowsUpserted.WithLabelValues(source).Add(float64(count))
}

// Dropped row metrics
func (m *Metrics) RecordRowDropped(reason string) {
	m.RowsDropped.WithLabelValues(reason).Inc()
}

// Platform API call metrics
func (m *Metrics) RecordPlatformCall(operation, status string, duration time.Duration) {
	m.PlatformCalls.WithLabelValues(operation, status).Inc()
	m.PlatformDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Platform API failure metrics
func (m *Metrics) RecordPlatformFailure(operation, errorType string) {
	m.PlatformFailures.WithLabelValues(operation, errorType).Inc()
}

// Aggregation query metrics
func (m *Metrics) RecordAggregationQuery(view string) {
	m.AggregationQueries.WithLabelValues(view).Inc()
}

// Sync in progress counter
func (m *Metrics) IncSyncsInProgress() {
	m.SyncsInProgress.Inc()
}

// Sync in progress counter
func (m *Metrics) DecSyncsInProgress() {
	m.SyncsInProgress.Dec()
}

// HTTP requests in flight counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// HTTP requests in flight counter
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
