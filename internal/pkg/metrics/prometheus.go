package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "serviceinfo",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "serviceinfo",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "serviceinfo",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	registrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "serviceinfo",
			Subsystem: "account",
			Name:      "registrations_total",
			Help:      "Provider self-registrations",
		},
	)

	activationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "serviceinfo",
			Subsystem: "account",
			Name:      "activations_total",
			Help:      "Activation link visits by outcome",
		},
		[]string{"outcome"},
	)

	mailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "serviceinfo",
			Subsystem: "mail",
			Name:      "sent_total",
			Help:      "Outgoing emails by kind and status",
		},
		[]string{"kind", "status"},
	)

	serviceTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "serviceinfo",
			Subsystem: "service",
			Name:      "status_transitions_total",
			Help:      "Service status changes by target status",
		},
		[]string{"status"},
	)

	searchReindexDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "serviceinfo",
			Subsystem: "search",
			Name:      "reindex_duration_seconds",
			Help:      "Duration of a full search index rebuild",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30},
		},
	)

	searchEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "serviceinfo",
			Subsystem: "search",
			Name:      "entries",
			Help:      "Number of documents in the search index",
		},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}

		status := strconv.Itoa(wrapped.statusCode)
		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRegistration counts a provider self-registration
func RecordRegistration() {
	registrationsTotal.Inc()
}

// RecordActivation counts an activation link visit; outcome is activated, replayed or unknown
func RecordActivation(outcome string) {
	activationsTotal.WithLabelValues(outcome).Inc()
}

// RecordMail counts an outgoing email
func RecordMail(kind string, err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	mailsTotal.WithLabelValues(kind, status).Inc()
}

// RecordServiceTransition counts a service moving to status
func RecordServiceTransition(status string) {
	serviceTransitionsTotal.WithLabelValues(status).Inc()
}

// RecordReindex records a full search rebuild
func RecordReindex(duration time.Duration, entries int) {
	searchReindexDuration.Observe(duration.Seconds())
	searchEntries.Set(float64(entries))
}
