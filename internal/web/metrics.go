package web

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the prometheus metrics exposed by the server. They use
// their own registry so multiple servers can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	Requests    *prometheus.CounterVec
	RateLimited prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fittrack",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of HTTP requests handled, by route and status code.",
		}, []string{"route", "status"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fittrack",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Number of HTTP requests rejected by a rate limiter.",
		}),
	}
}

// Handler serves the metrics in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the status code written to the response.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// metricsMiddleware counts every request by matched route pattern and
// response status.
func metricsMiddleware(srv *Server) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, route := srv.mux.Handler(r)
			if route == "" {
				route = "unmatched"
			}

			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sr, r)

			srv.deps.Metrics.Requests.WithLabelValues(route, strconv.Itoa(sr.status)).Inc()
		})
	}
}
