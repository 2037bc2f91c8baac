// ABOUTME: Prometheus collectors for Mattermost API traffic and MCP tool calls
// ABOUTME: Implements the mattermost.Observer hook and exposes a scrape handler

package metrics

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2389/mcp-server-mattermost/internal/mattermost"
)

const (
	Namespace           = "mcp_mattermost"
	SubsystemMattermost = "mattermost"
	SubsystemTools      = "tools"

	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds every collector on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	startTime prometheus.Gauge
	buildInfo *prometheus.GaugeVec

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retriesTotal    *prometheus.CounterVec

	toolCallsTotal   *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec
}

var _ mattermost.Observer = (*Metrics)(nil)

// New creates and registers all collectors.
func New(version string) *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: Namespace}))
	m.registry.MustRegister(collectors.NewGoCollector())

	m.startTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "start_timestamp_seconds",
		Help:      "The time the server started.",
	})
	m.startTime.SetToCurrentTime()

	m.buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "The server version.",
	}, []string{"version"})
	m.buildInfo.WithLabelValues(version).Set(1)

	m.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: SubsystemMattermost,
		Name:      "requests_total",
		Help:      "HTTP attempts against the Mattermost API, by method and status class.",
	}, []string{"method", "status_class"})

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: SubsystemMattermost,
		Name:      "request_duration_seconds",
		Help:      "Duration of single HTTP attempts against the Mattermost API.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	m.retriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: SubsystemMattermost,
		Name:      "retries_total",
		Help:      "Retried Mattermost API attempts, by error kind.",
	}, []string{"kind"})

	m.toolCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: SubsystemTools,
		Name:      "calls_total",
		Help:      "MCP tool calls, by tool and outcome.",
	}, []string{"tool", "outcome"})

	m.toolCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: SubsystemTools,
		Name:      "call_duration_seconds",
		Help:      "Duration of MCP tool calls, retries included.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"tool"})

	m.registry.MustRegister(
		m.startTime,
		m.buildInfo,
		m.requestsTotal,
		m.requestDuration,
		m.retriesTotal,
		m.toolCallsTotal,
		m.toolCallDuration,
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// statusClass buckets a status code as "2xx", "4xx", ...; 0 means the request never got a response.
func statusClass(status int) string {
	if status <= 0 {
		return "transport_error"
	}
	return strconv.Itoa(status/100) + "xx"
}

// ObserveRequest records one HTTP attempt.
func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, statusClass(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveRetry records a retry caused by an error of the given kind.
func (m *Metrics) ObserveRetry(kind mattermost.ErrorKind) {
	if m == nil {
		return
	}
	m.retriesTotal.WithLabelValues(string(kind)).Inc()
}

// ObserveToolCall records one finished tool call.
func (m *Metrics) ObserveToolCall(tool, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.toolCallsTotal.WithLabelValues(tool, outcome).Inc()
	m.toolCallDuration.WithLabelValues(tool).Observe(d.Seconds())
}

type errorLogger struct {
	logger *slog.Logger
}

func (l errorLogger) Println(v ...any) {
	l.logger.Warn("metrics handler error", "detail", v)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler(logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: errorLogger{logger: logger},
	})
}
