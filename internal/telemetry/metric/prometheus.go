package metric

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every application metric.
const Namespace = "app"

// DefaultDurationBuckets are the latency buckets for request histograms.
var DefaultDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

// Registry holds all application metrics.
//
// It is created once at startup and shared by the pipeline (which counts
// requests) and the /metrics endpoint (which reads them).
type Registry struct {
	registry *prometheus.Registry

	// RequestsTotal counts requests under the API namespace.
	RequestsTotal prometheus.Counter

	// HTTP metrics
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	HTTPInFlight     prometheus.Gauge
	RateLimitRejects prometheus.Counter

	// Messaging metrics
	OrderEvents *prometheus.CounterVec

	buildInfo *prometheus.GaugeVec
}

// NewRegistry creates a registry with the default runtime collectors and all
// application metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		RequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "Total number of API requests",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route group, method and status",
		}, []string{"group", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route group and method",
			Buckets:   DefaultDurationBuckets,
		}, []string{"group", "method"}),
		HTTPInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Current in-flight HTTP requests",
		}),
		RateLimitRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter",
		}),
		OrderEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "order_events",
			Name:      "published_total",
			Help:      "Order events handed to the message broker by result",
		}, []string{"result"}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "build_info",
			Help:      "Build information; value is always 1",
		}, []string{"version", "commit"}),
	}

	reg.MustRegister(
		r.RequestsTotal,
		r.HTTPRequests,
		r.HTTPDuration,
		r.HTTPInFlight,
		r.RateLimitRejects,
		r.OrderEvents,
		r.buildInfo,
	)

	return r
}

var (
	globalOnce     sync.Once
	globalRegistry *Registry
)

// Global returns a lazily created process-wide registry.
// Servers should build their own with NewRegistry and pass it down.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// IncAPIRequest counts one request under the API namespace.
func (r *Registry) IncAPIRequest() {
	r.RequestsTotal.Inc()
}

// ObserveHTTP records the outcome of a dispatched request.
func (r *Registry) ObserveHTTP(group, method, status string, seconds float64) {
	r.HTTPRequests.WithLabelValues(group, method, status).Inc()
	r.HTTPDuration.WithLabelValues(group, method).Observe(seconds)
}

// RecordOrderEvent counts a publish attempt with result "ok" or "error".
func (r *Registry) RecordOrderEvent(result string) {
	r.OrderEvents.WithLabelValues(result).Inc()
}

// SetBuildInfo exports the running build's version and commit.
func (r *Registry) SetBuildInfo(version, commit string) {
	r.buildInfo.Reset()
	r.buildInfo.WithLabelValues(version, commit).Set(1)
}

// MustRegister registers additional collectors (e.g. store statistics).
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.registry.MustRegister(cs...)
}

// Registerer exposes the underlying registry to components that register
// their own collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry for exposition and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns the /metrics handler.
//
// A gather failure responds 500 with the error message as plain text; the
// failure is logged and never propagates beyond the endpoint.
func (r *Registry) Handler(logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		ErrorLog:      slogErrorLog{logger: logger},
		ErrorHandling: promhttp.HTTPErrorOnError,
		Registry:      r.registry,
	})
}

// slogErrorLog adapts slog to promhttp.Logger.
type slogErrorLog struct {
	logger *slog.Logger
}

func (l slogErrorLog) Println(v ...any) {
	l.logger.Error("metrics exposition failed", "error", v)
}
