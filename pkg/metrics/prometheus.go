// Package metrics provides Prometheus metrics for the rent scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Scoring runs
	scoringRuns         *prometheus.CounterVec
	scoringRunDuration  prometheus.Histogram
	participantsScored  prometheus.Counter
	participantsSkipped prometheus.Counter
	validPredictions    prometheus.Counter
	lastAccuracy        *prometheus.GaugeVec
	scoreEventsRecorded *prometheus.CounterVec
	participantsCreated prometheus.Counter
	participantsTotal   prometheus.Gauge

	// Listing feed
	feedRequests       *prometheus.CounterVec
	feedRequestLatency prometheus.Histogram
	feedRecords        prometheus.Gauge

	// Leaderboards
	leaderboardBuilds  *prometheus.CounterVec
	leaderboardEntries *prometheus.GaugeVec
	cacheLookups       *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to keep exported series to the ones we own plus runtime.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	customRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rentscore",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
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

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
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

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	m.scoringRuns = m.counterVec("scoring_runs_total", "Scoring runs by outcome", "outcome")
	m.scoringRunDuration = m.histogram("scoring_run_duration_seconds", "Wall time of a full scoring run")
	m.participantsScored = m.counter("participants_scored_total", "Participants that produced a score")
	m.participantsSkipped = m.counter("participants_skipped_total", "Participants with no valid prediction in a run")
	m.validPredictions = m.counter("valid_predictions_total", "Predictions that contributed to a score")
	m.lastAccuracy = m.gaugeVec("last_accuracy_score", "Most recent accuracy score per participant", "participant")
	m.scoreEventsRecorded = m.counterVec("score_events_recorded_total", "Score events appended by source", "source")
	m.participantsCreated = m.counter("participants_created_total", "Participants created")
	m.participantsTotal = m.gauge("participants", "Known participants")

	m.feedRequests = m.counterVec("feed_requests_total", "Listing feed page requests by status", "status")
	m.feedRequestLatency = m.histogram("feed_request_duration_seconds", "Listing feed page request latency")
	m.feedRecords = m.gauge("feed_records", "Listings returned by the last full feed fetch")

	m.leaderboardBuilds = m.counterVec("leaderboard_builds_total", "Leaderboards composed by kind", "kind")
	m.leaderboardEntries = m.gaugeVec("leaderboard_entries", "Entries on the last composed leaderboard", "kind")
	m.cacheLookups = m.counterVec("cache_lookups_total", "Leaderboard cache lookups by result", "result")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by route, method and status", "route", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_seconds",
		Help:        "HTTP request duration",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"route", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and kind", "component", "kind")
}

// RecordScoringRun counts a finished scoring run and its duration.
func RecordScoringRun(outcome string, seconds float64) {
	globalManager.scoringRuns.WithLabelValues(outcome).Inc()
	globalManager.scoringRunDuration.Observe(seconds)
}

// RecordParticipantScored records one participant's computed score.
func RecordParticipantScored(participant string, accuracy float64, validPredictions int) {
	globalManager.participantsScored.Inc()
	globalManager.validPredictions.Add(float64(validPredictions))
	globalManager.lastAccuracy.WithLabelValues(participant).Set(accuracy)
}

// RecordParticipantSkipped counts a participant that had nothing to score.
func RecordParticipantSkipped() {
	globalManager.participantsSkipped.Inc()
}

// RecordScoreEvent counts an appended score event. source is "run" or "api".
func RecordScoreEvent(source string) {
	globalManager.scoreEventsRecorded.WithLabelValues(source).Inc()
}

// RecordParticipantCreated counts a newly created participant.
func RecordParticipantCreated() {
	globalManager.participantsCreated.Inc()
}

// UpdateParticipantCount sets the number of known participants.
func UpdateParticipantCount(n int) {
	globalManager.participantsTotal.Set(float64(n))
}

// RecordFeedRequest records one listing feed page request.
func RecordFeedRequest(status string, seconds float64) {
	globalManager.feedRequests.WithLabelValues(status).Inc()
	globalManager.feedRequestLatency.Observe(seconds)
}

// UpdateFeedRecords sets how many listings the last fetch returned.
func UpdateFeedRecords(n int) {
	globalManager.feedRecords.Set(float64(n))
}

// RecordLeaderboardBuild records a composed leaderboard of the given kind.
func RecordLeaderboardBuild(kind string, entries int) {
	globalManager.leaderboardBuilds.WithLabelValues(kind).Inc()
	globalManager.leaderboardEntries.WithLabelValues(kind).Set(float64(entries))
}

// RecordCacheLookup records a leaderboard cache "hit" or "miss".
func RecordCacheLookup(result string) {
	globalManager.cacheLookups.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(route, method, statusCode string, seconds float64) {
	globalManager.httpRequests.WithLabelValues(route, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(route, method, statusCode).Observe(seconds)
}

// RecordError records an error with component and kind labels.
func RecordError(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
