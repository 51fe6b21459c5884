// Package metrics provides Prometheus metrics for the injury-risk service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Assessment metrics
	assessmentsTotal     *prometheus.CounterVec
	riskScore            prometheus.Histogram
	validationRejections *prometheus.CounterVec
	scoringLatency       prometheus.Histogram

	// Coaching metrics
	coachingTotal    *prometheus.CounterVec
	fallbackReasons  *prometheus.CounterVec
	modelLatency     *prometheus.HistogramVec
	usageCounter     *prometheus.GaugeVec
	usageSinkErrors  prometheus.Counter
	analyticsLatency *prometheus.HistogramVec

	// Repository metrics
	repositoryRecordsTotal  prometheus.Gauge
	repositoryAppendLatency *prometheus.HistogramVec
	repositoryQueryLatency  *prometheus.HistogramVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "liftguard",
		subsystem:        "api",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 5000, 15000},
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

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
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

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.assessmentsTotal = m.counterVec("assessments_total",
		"Total number of persisted assessments by risk level", "risk_level")
	m.riskScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "risk_score",
		Help:        "Distribution of computed risk scores",
		Buckets:     prometheus.LinearBuckets(0, 10, 11),
		ConstLabels: m.constLabels,
	})
	m.validationRejections = m.counterVec("validation_rejections_total",
		"Total number of assessment inputs rejected by validation", "field")
	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "scoring_latency_milliseconds",
		Help:        "Histogram of scoring latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.coachingTotal = m.counterVec("coaching_requests_total",
		"Total number of coaching plans generated by mode", "mode")
	m.fallbackReasons = m.counterVec("coaching_fallback_total",
		"Total number of coaching fallbacks by reason", "reason")
	m.modelLatency = m.histogramVec("coaching_model_latency_milliseconds",
		"Latency of language-model attempts in milliseconds", m.histogramBuckets, "model", "outcome")
	m.usageCounter = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "ai_usage",
		Help:        "Coaching usage counter value by mode",
		ConstLabels: m.constLabels,
	}, []string{"mode"})
	m.usageSinkErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "ai_usage_persist_errors_total",
		Help:        "Total number of failed usage counter writes",
		ConstLabels: m.constLabels,
	})
	m.analyticsLatency = m.histogramVec("analytics_query_latency_milliseconds",
		"Dashboard aggregation latency in milliseconds", m.histogramBuckets, "query")

	m.repositoryRecordsTotal = m.gauge("repository_records_total",
		"Total number of assessments held by the store")
	m.repositoryAppendLatency = m.histogramVec("repository_append_latency_milliseconds",
		"Latency of assessment appends in milliseconds", m.histogramBuckets, "driver")
	m.repositoryQueryLatency = m.histogramVec("repository_query_latency_milliseconds",
		"Latency of assessment reads in milliseconds", m.histogramBuckets, "driver", "op")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets, "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")

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

// RecordAssessment counts a persisted assessment and observes its score.
func RecordAssessment(riskLevel string, score int) {
	globalManager.assessmentsTotal.WithLabelValues(riskLevel).Inc()
	globalManager.riskScore.Observe(float64(score))
}

// RecordValidationRejection counts an input rejected on field.
func RecordValidationRejection(field string) {
	globalManager.validationRejections.WithLabelValues(field).Inc()
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordCoaching counts a coaching plan produced in mode.
func RecordCoaching(mode string) {
	globalManager.coachingTotal.WithLabelValues(mode).Inc()
}

// RecordCoachingFallback counts a fallback by reason (timeout, transport, parse, unavailable).
func RecordCoachingFallback(reason string) {
	globalManager.fallbackReasons.WithLabelValues(reason).Inc()
}

// RecordModelLatency records the duration of one model attempt.
func RecordModelLatency(model, outcome string, latencyMs float64) {
	globalManager.modelLatency.WithLabelValues(model, outcome).Observe(latencyMs)
}

// UpdateAIUsage mirrors the usage counter for mode.
func UpdateAIUsage(mode string, value int64) {
	globalManager.usageCounter.WithLabelValues(mode).Set(float64(value))
}

// RecordUsagePersistError counts a failed usage counter write.
func RecordUsagePersistError() {
	globalManager.usageSinkErrors.Inc()
}

// RecordAnalyticsLatency records how long a dashboard query took.
func RecordAnalyticsLatency(query string, latencyMs float64) {
	globalManager.analyticsLatency.WithLabelValues(query).Observe(latencyMs)
}

// UpdateRepositoryRecordsTotal sets the number of stored assessments.
func UpdateRepositoryRecordsTotal(count int) {
	globalManager.repositoryRecordsTotal.Set(float64(count))
}

// RecordRepositoryAppendLatency records append latency for driver.
func RecordRepositoryAppendLatency(driver string, latencyMs float64) {
	globalManager.repositoryAppendLatency.WithLabelValues(driver).Observe(latencyMs)
}

// RecordRepositoryQueryLatency records read latency for driver and op.
func RecordRepositoryQueryLatency(driver, op string, latencyMs float64) {
	globalManager.repositoryQueryLatency.WithLabelValues(driver, op).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records errors by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records errors by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
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
