package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Route groups used as the "api" label.
const (
	GroupSearch    = "search"
	GroupAnalytics = "analytics"
	GroupPatents   = "patents"
	GroupAdmin     = "admin"
	GroupSystem    = "system"
)

const apiPrefix = "/api/v1/"

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"api", "method", "route", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		},
		[]string{"api", "method", "route", "status"},
	)

	httpInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Requests currently being served",
		},
		[]string{"api"},
	)
)

var registerHTTP sync.Once

// RegisterHTTPMetrics registers the HTTP middleware collectors on the default registry.
func RegisterHTTPMetrics() {
	registerHTTP.Do(func() {
		prometheus.MustRegister(httpRequestDuration, httpRequestsTotal, httpInFlight)
	})
}

// Middleware records per-route latency, counts and in-flight requests.
// Labels use the chi route pattern, so patent ids never reach a label value.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			group := RouteGroup(r.URL.Path)
			httpInFlight.WithLabelValues(group).Inc()
			defer httpInFlight.WithLabelValues(group).Dec()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			labels := []string{group, r.Method, route, strconv.Itoa(sw.status)}
			httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(labels...).Inc()
		})
	}
}

// RouteGroup maps a request path to its API group.
func RouteGroup(path string) string {
	rest, ok := strings.CutPrefix(path, apiPrefix)
	if !ok {
		return GroupSystem
	}
	first, _, _ := strings.Cut(rest, "/")
	switch first {
	case GroupSearch, GroupAnalytics, GroupPatents, GroupAdmin:
		return first
	default:
		return GroupSystem
	}
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // pass-through
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
