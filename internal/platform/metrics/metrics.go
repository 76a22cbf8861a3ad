package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics keeps its own registry so tests and multiple servers in one process
// do not collide on the global one.
type Metrics struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	forwards *prometheus.CounterVec
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldmap_session_events_total",
			Help: "Session events applied, by event and whether state changed",
		}, []string{"event", "changed"}),
		forwards: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldmap_photos_forwarded_total",
			Help: "Photo forwarding attempts by result",
		}, []string{"result"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldmap_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fieldmap_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *Metrics) EventApplied(event string, changed bool) {
	m.events.WithLabelValues(event, strconv.FormatBool(changed)).Inc()
}

func (m *Metrics) PhotoForwarded(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.forwards.WithLabelValues(result).Inc()
}

func (m *Metrics) Registry() prometheus.Gatherer {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware labels requests with the chi route pattern, not the raw path.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
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
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Noop satisfies the session recorder when metrics are not served.
type Noop struct{}

func (Noop) EventApplied(string, bool) {}
func (Noop) PhotoForwarded(bool)       {}
