package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the server's own registry so parallel test servers never
// collide on global collector registration.
type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	uploads  *prometheus.CounterVec
	heals    *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "turret",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "turret",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "turret",
				Name:      "uploads_total",
				Help:      "TxFunction upload outcomes.",
			},
			[]string{"outcome"},
		),
		heals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "turret",
				Name:      "heals_total",
				Help:      "Heal request outcomes.",
			},
			[]string{"outcome"},
		),
	}
	m.registry.MustRegister(m.requests, m.duration, m.uploads, m.heals)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		status := strconv.Itoa(rec.status)
		s.metrics.requests.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		s.metrics.duration.WithLabelValues(r.Method, r.URL.Path, status).Observe(elapsed.Seconds())

		event := s.log.Info()
		if rec.status >= 500 {
			event = s.log.Error()
		} else if rec.status >= 400 {
			event = s.log.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", elapsed).
			Msg("http_request")
	})
}
