// Package metrics provides Prometheus metrics for the intentiq assistant core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the assistant.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Classification
	predictions       *prometheus.CounterVec
	predictionLatency *prometheus.HistogramVec
	modelLoads        *prometheus.CounterVec

	// Artifact store
	artifactSaves *prometheus.CounterVec

	// Skill dispatch
	dispatches           *prometheus.CounterVec
	placeholderRegisters prometheus.Counter
	discoveredSkills     prometheus.Gauge
	dispatchLatency      prometheus.Histogram

	// Speech recognition
	recognitions       *prometheus.CounterVec
	escalations        prometheus.Counter
	recognitionLatency *prometheus.HistogramVec

	// Audio capture queue
	chunksEnqueued prometheus.Counter
	chunksDropped  prometheus.Counter
	chunkQueueSize prometheus.Gauge

	// Engine loop
	utterances *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "intentiq",
		subsystem:        "core",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// SetGlobal replaces the manager behind the package level helpers.
func SetGlobal(m *Manager) {
	if m != nil {
		globalManager = m
	}
}

// Enabled reports whether the manager records anything.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)

	m.predictions = auto.NewCounterVec(
		m.counterOpts("predictions_total", "Total number of intent predictions by family and label"),
		[]string{"family", "label"},
	)
	m.predictionLatency = auto.NewHistogramVec(
		m.histogramOpts("prediction_latency_milliseconds", "Embedding plus classification latency in milliseconds"),
		[]string{"family"},
	)
	m.modelLoads = auto.NewCounterVec(
		m.counterOpts("model_loads_total", "Model load attempts by family and outcome"),
		[]string{"family", "outcome"},
	)

	m.artifactSaves = auto.NewCounterVec(
		m.counterOpts("artifact_saves_total", "Artifact set saves by family and outcome"),
		[]string{"family", "outcome"},
	)

	m.dispatches = auto.NewCounterVec(
		m.counterOpts("dispatches_total", "Skill dispatches by outcome"),
		[]string{"outcome"},
	)
	m.placeholderRegisters = auto.NewCounter(
		m.counterOpts("placeholder_registrations_total", "Intents that received an auto-registered placeholder skill"),
	)
	m.discoveredSkills = auto.NewGauge(
		m.gaugeOpts("skills_discovered", "Number of intents known to the skill registry"),
	)
	m.dispatchLatency = auto.NewHistogram(
		m.histogramOpts("dispatch_latency_milliseconds", "Skill handler latency in milliseconds"),
	)

	m.recognitions = auto.NewCounterVec(
		m.counterOpts("recognitions_total", "Speech recognitions by engine and outcome"),
		[]string{"engine", "outcome"},
	)
	m.escalations = auto.NewCounter(
		m.counterOpts("escalations_total", "Utterances escalated from the fast to the accurate engine"),
	)
	m.recognitionLatency = auto.NewHistogramVec(
		m.histogramOpts("recognition_latency_milliseconds", "Speech recognition latency in milliseconds"),
		[]string{"engine"},
	)

	m.chunksEnqueued = auto.NewCounter(
		m.counterOpts("audio_chunks_enqueued_total", "Audio chunks accepted by the capture queue"),
	)
	m.chunksDropped = auto.NewCounter(
		m.counterOpts("audio_chunks_dropped_total", "Audio chunks dropped because the capture queue was full"),
	)
	m.chunkQueueSize = auto.NewGauge(
		m.gaugeOpts("audio_queue_size", "Current number of buffered audio chunks"),
	)

	m.utterances = auto.NewCounterVec(
		m.counterOpts("utterances_total", "Engine loop cycles by outcome"),
		[]string{"outcome"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
}

// RecordPrediction counts one prediction and its latency.
func RecordPrediction(family, label string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.predictions.WithLabelValues(family, label).Inc()
	globalManager.predictionLatency.WithLabelValues(family).Observe(latencyMs)
}

// RecordModelLoad counts a model load attempt.
func RecordModelLoad(family, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.modelLoads.WithLabelValues(family, outcome).Inc()
}

// RecordArtifactSave counts an artifact save attempt.
func RecordArtifactSave(family, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.artifactSaves.WithLabelValues(family, outcome).Inc()
}

// RecordDispatch counts a dispatch with its outcome and handler latency.
func RecordDispatch(outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.dispatches.WithLabelValues(outcome).Inc()
	globalManager.dispatchLatency.Observe(latencyMs)
}

// RecordPlaceholderRegistration counts an auto-registered placeholder.
func RecordPlaceholderRegistration() {
	if !globalManager.enabled {
		return
	}
	globalManager.placeholderRegisters.Inc()
}

// UpdateDiscoveredSkills sets the skill registry size.
func UpdateDiscoveredSkills(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.discoveredSkills.Set(float64(count))
}

// RecordRecognition counts a recognition by engine and outcome.
func RecordRecognition(engine, outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.recognitions.WithLabelValues(engine, outcome).Inc()
	globalManager.recognitionLatency.WithLabelValues(engine).Observe(latencyMs)
}

// RecordEscalation counts a fast to accurate escalation.
func RecordEscalation() {
	if !globalManager.enabled {
		return
	}
	globalManager.escalations.Inc()
}

// RecordChunkEnqueued counts an accepted audio chunk.
func RecordChunkEnqueued() {
	if !globalManager.enabled {
		return
	}
	globalManager.chunksEnqueued.Inc()
}

// RecordChunkDropped counts a dropped audio chunk.
func RecordChunkDropped() {
	if !globalManager.enabled {
		return
	}
	globalManager.chunksDropped.Inc()
}

// UpdateChunkQueueSize sets the current capture backlog.
func UpdateChunkQueueSize(size int) {
	if !globalManager.enabled {
		return
	}
	globalManager.chunkQueueSize.Set(float64(size))
}

// RecordUtterance counts one engine loop cycle.
func RecordUtterance(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.utterances.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records HTTP request metrics.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records errors by component.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
