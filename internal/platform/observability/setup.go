package observability

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config captures observability toggles.
type Config struct {
	Enabled bool
	// MetricsPath is where the Prometheus handler is mounted; empty disables it.
	MetricsPath string
}

// ShutdownFunc allows callers to tear down any observability exporters.
type ShutdownFunc func(context.Context) error

type metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	spans           *prometheus.CounterVec
	spanDuration    *prometheus.HistogramVec
	gauges          *prometheus.GaugeVec
}

var (
	loggerMu             sync.RWMutex
	instrumentationLog   *slog.Logger
	instrumentationState Config
	instrumentationProm  *metrics
)

func currentLogger() (*slog.Logger, Config) {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return instrumentationLog, instrumentationState
}

func currentMetrics() *metrics {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return instrumentationProm
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adventure",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "adventure",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		spans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adventure",
			Name:      "operations_total",
			Help:      "Instrumented operations by component, operation and outcome.",
		}, []string{"component", "operation", "outcome"}),
		spanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "adventure",
			Name:      "operation_duration_seconds",
			Help:      "Latency of instrumented operations.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"component", "operation"}),
		gauges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "adventure",
			Name:      "metric_value",
			Help:      "Ad-hoc datapoints recorded through RecordMetric.",
		}, []string{"name"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.spans,
		m.spanDuration,
		m.gauges,
	)
	return m
}

// Setup installs the logger used for spans and, when enabled, a fresh Prometheus registry.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (ShutdownFunc, error) {
	var m *metrics
	if cfg.Enabled {
		m = newMetrics()
	}

	loggerMu.Lock()
	instrumentationLog = logger
	instrumentationState = cfg
	instrumentationProm = m
	loggerMu.Unlock()

	if logger != nil {
		if cfg.Enabled {
			logger.InfoContext(ctx, "[OBS] metrics enabled", slog.String("path", cfg.MetricsPath))
		} else {
			logger.InfoContext(ctx, "[OBS] disabled")
		}
	}
	return func(context.Context) error {
		loggerMu.Lock()
		instrumentationProm = nil
		loggerMu.Unlock()
		return nil
	}, nil
}

// Handler exposes the metrics registry, or 404 when metrics are off.
func Handler() http.Handler {
	m := currentMetrics()
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
