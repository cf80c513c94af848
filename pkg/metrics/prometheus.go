// Package metrics provides Prometheus metrics for the podium leaderboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the podium service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Submissions
	submissionsAccepted *prometheus.CounterVec
	submissionsRejected *prometheus.CounterVec

	// Ranking
	rankingQueries      *prometheus.CounterVec
	unifiedFanout       prometheus.Histogram
	unifiedMergeLatency prometheus.Histogram

	// Storage
	storageLatency  *prometheus.HistogramVec
	storageErrors   *prometheus.CounterVec
	storedEntries   prometheus.Gauge
	knownCategories prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "podium",
		subsystem:        "leaderboard",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.submissionsAccepted = m.counterVec("submissions_accepted_total",
		"Scores stored, by category", "category")
	m.submissionsRejected = m.counterVec("submissions_rejected_total",
		"Submissions refused before storage, by reason", "reason")

	m.rankingQueries = m.counterVec("ranking_queries_total",
		"Leaderboard reads, by kind (category|unified)", "kind")
	m.unifiedFanout = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "unified_fanout_categories",
		Help:        "Number of categories fetched per unified query",
		Buckets:     []float64{1, 2, 3, 5, 8, 13, 21, 34},
		ConstLabels: m.constLabels,
	})
	m.unifiedMergeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "unified_merge_latency_milliseconds",
		Help:        "Unified query latency including fan-out, in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.storageLatency = m.histogramVec("storage_operation_latency_milliseconds",
		"Storage operation latency in milliseconds", "backend", "operation")
	m.storageErrors = m.counterVec("storage_errors_total",
		"Failed storage operations", "backend", "operation")
	m.storedEntries = m.gauge("stored_entries", "Entries currently held by the store")
	m.knownCategories = m.gauge("known_categories", "Categories that received at least one score")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total",
		"HTTP responses with status >= 400, by class", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})
}

// RecordSubmissionAccepted counts a stored score.
func RecordSubmissionAccepted(category string) {
	globalManager.submissionsAccepted.WithLabelValues(category).Inc()
}

// RecordSubmissionRejected counts a submission refused by validation.
func RecordSubmissionRejected(reason string) {
	globalManager.submissionsRejected.WithLabelValues(reason).Inc()
}

// RecordRankingQuery counts a leaderboard read.
func RecordRankingQuery(kind string) {
	globalManager.rankingQueries.WithLabelValues(kind).Inc()
}

// RecordUnifiedFanout records how many categories one unified query touched.
func RecordUnifiedFanout(categories int) {
	globalManager.unifiedFanout.Observe(float64(categories))
}

// RecordUnifiedMergeLatency records unified query latency in milliseconds.
func RecordUnifiedMergeLatency(latencyMs float64) {
	globalManager.unifiedMergeLatency.Observe(latencyMs)
}

// RecordStorageLatency records the latency of one storage call.
func RecordStorageLatency(backend, operation string, latencyMs float64) {
	globalManager.storageLatency.WithLabelValues(backend, operation).Observe(latencyMs)
}

// RecordStorageError counts a failed storage call.
func RecordStorageError(backend, operation string) {
	globalManager.storageErrors.WithLabelValues(backend, operation).Inc()
}

// UpdateStoredEntries sets the stored entries gauge.
func UpdateStoredEntries(count int) {
	globalManager.storedEntries.Set(float64(count))
}

// UpdateKnownCategories sets the known categories gauge.
func UpdateKnownCategories(count int) {
	globalManager.knownCategories.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
