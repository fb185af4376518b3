// Package metrics exposes Prometheus collectors for the server.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "prdtool"

// Chat turn modes and outcomes
const (
	ModeStreaming    = "streaming"
	ModeNonStreaming = "non_streaming"

	OutcomeComplete  = "complete"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)

// Version reasons
const (
	VersionSnapshot      = "snapshot"
	VersionRestoreBackup = "restore_backup"
	VersionRestore       = "restore"
)

// Metrics holds every collector registered by the server.
type Metrics struct {
	registry *prometheus.Registry

	chatTurns         *prometheus.CounterVec
	streamFragments   prometheus.Counter
	directivesApplied prometheus.Counter
	versionsCreated   *prometheus.CounterVec
	completionSeconds *prometheus.HistogramVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// NewMetrics creates a registry with process/Go collectors and the server's own metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		chatTurns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Chat turns submitted, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		streamFragments: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "stream_fragments_total",
			Help:      "Text fragments forwarded to streaming clients.",
		}),
		directivesApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "directives_applied_total",
			Help:      "Update directives appended to documents.",
		}),
		versionsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "versions",
			Name:      "created_total",
			Help:      "Versions recorded, by reason.",
		}, []string{"reason"}),
		completionSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "completion",
			Name:      "duration_seconds",
			Help:      "Time spent waiting on the completion provider.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 120},
		}, []string{"mode"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by method, route pattern and status.",
		}, []string{"method", "route", "code"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveChatTurn(mode, outcome string) {
	if m == nil {
		return
	}
	m.chatTurns.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) AddStreamFragment() {
	if m == nil {
		return
	}
	m.streamFragments.Inc()
}

func (m *Metrics) ObserveDirectiveApplied() {
	if m == nil {
		return
	}
	m.directivesApplied.Inc()
}

func (m *Metrics) ObserveVersionCreated(reason string) {
	if m == nil {
		return
	}
	m.versionsCreated.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveCompletion(mode string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.completionSeconds.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveHTTPRequest(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
