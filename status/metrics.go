package status

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voice-typist/listener"
)

// EngineStatus is the view of the capture engine the status server needs.
type EngineStatus interface {
	State() listener.State
	Stats() listener.Stats
	WakeWordEnabled() bool
}

// Metrics holds the Prometheus metrics for the status server. Each server
// owns its own registry so independent instances never collide.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a registry exposing the engine counters plus HTTP API
// metrics.
func NewMetrics(engine EngineStatus) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voicetypist_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicetypist_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}

	registry.MustRegister(m.HTTPRequests, m.HTTPRequestDuration)
	registry.MustRegister(newEngineCollector(engine))

	return m
}

// RecordHTTPRequest records one handled HTTP request.
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// engineCollector reads the engine counters on scrape instead of keeping a
// second set of counters in sync.
type engineCollector struct {
	engine EngineStatus

	state           *prometheus.Desc
	wakeWordEnabled *prometheus.Desc
	chunksProcessed *prometheus.Desc
	wakeDetections  *prometheus.Desc
	commands        *prometheus.Desc
	forcedFinalizes *prometheus.Desc
	chunkErrors     *prometheus.Desc
	sourceErrors    *prometheus.Desc
	droppedEvents   *prometheus.Desc
}

func newEngineCollector(engine EngineStatus) *engineCollector {
	return &engineCollector{
		engine: engine,
		state: prometheus.NewDesc("voicetypist_engine_state",
			"Engine state: 0 idle, 1 recording", nil, nil),
		wakeWordEnabled: prometheus.NewDesc("voicetypist_wake_word_enabled",
			"Whether wake word detection is available", nil, nil),
		chunksProcessed: prometheus.NewDesc("voicetypist_chunks_processed_total",
			"Total number of audio chunks processed", nil, nil),
		wakeDetections: prometheus.NewDesc("voicetypist_wake_detections_total",
			"Total number of wake word detections", nil, nil),
		commands: prometheus.NewDesc("voicetypist_commands_captured_total",
			"Total number of captured commands", nil, nil),
		forcedFinalizes: prometheus.NewDesc("voicetypist_forced_finalizes_total",
			"Total number of commands ended by the duration cap", nil, nil),
		chunkErrors: prometheus.NewDesc("voicetypist_chunk_errors_total",
			"Total number of per-chunk processing errors", nil, nil),
		sourceErrors: prometheus.NewDesc("voicetypist_source_errors_total",
			"Total number of audio source errors", nil, nil),
		droppedEvents: prometheus.NewDesc("voicetypist_dropped_events_total",
			"Total number of dropped lifecycle events", nil, nil),
	}
}

func (c *engineCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.state
	ch <- c.wakeWordEnabled
	ch <- c.chunksProcessed
	ch <- c.wakeDetections
	ch <- c.commands
	ch <- c.forcedFinalizes
	ch <- c.chunkErrors
	ch <- c.sourceErrors
	ch <- c.droppedEvents
}

func (c *engineCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.engine.Stats()

	enabled := 0.0
	if c.engine.WakeWordEnabled() {
		enabled = 1.0
	}

	ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, float64(stats.State))
	ch <- prometheus.MustNewConstMetric(c.wakeWordEnabled, prometheus.GaugeValue, enabled)
	ch <- prometheus.MustNewConstMetric(c.chunksProcessed, prometheus.CounterValue, float64(stats.ChunksProcessed))
	ch <- prometheus.MustNewConstMetric(c.wakeDetections, prometheus.CounterValue, float64(stats.WakeDetections))
	ch <- prometheus.MustNewConstMetric(c.commands, prometheus.CounterValue, float64(stats.CommandsCaptured))
	ch <- prometheus.MustNewConstMetric(c.forcedFinalizes, prometheus.CounterValue, float64(stats.ForcedFinalizes))
	ch <- prometheus.MustNewConstMetric(c.chunkErrors, prometheus.CounterValue, float64(stats.ChunkErrors))
	ch <- prometheus.MustNewConstMetric(c.sourceErrors, prometheus.CounterValue, float64(stats.SourceErrors))
	ch <- prometheus.MustNewConstMetric(c.droppedEvents, prometheus.CounterValue, float64(stats.DroppedEvents))
}
