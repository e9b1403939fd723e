package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one registry.
type Metrics struct {
	registry *prometheus.Registry

	relatedCalls    *prometheus.CounterVec
	relatedDuration *prometheus.HistogramVec
	flowEvents      *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them, together with the Go
// runtime and process collectors, on a private registry.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		relatedCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "related_view_calls_total",
				Help:      "Total number of related view invocations",
			},
			[]string{"view", "outcome"},
		),
		relatedDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "related_view_duration_seconds",
				Help:      "Duration of related view invocations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"view"},
		),
		flowEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "form_flow_events_total",
				Help:      "Total number of form flow transitions",
			},
			[]string{"view", "event"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests handled",
			},
			[]string{"route", "code"},
		),
	}

	m.registry.MustRegister(
		m.relatedCalls,
		m.relatedDuration,
		m.flowEvents,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRelated records one related view call.
func (m *Metrics) ObserveRelated(view string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.relatedCalls.WithLabelValues(view, outcome).Inc()
	m.relatedDuration.WithLabelValues(view).Observe(d.Seconds())
}

// ObserveFlow records one form flow transition.
func (m *Metrics) ObserveFlow(view, event string) {
	m.flowEvents.WithLabelValues(view, event).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registerer exposes the registry for application collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	return m.registry
}

// Middleware counts requests by chi route pattern and status code.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}
