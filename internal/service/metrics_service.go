package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry and the application metrics.
type MetricsService struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	enrollAttempts *prometheus.CounterVec
	gradesPosted   prometheus.Counter
}

// NewMetricsService builds the registry with process, Go runtime and
// application collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &MetricsService{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		enrollAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_enroll_attempts_total",
			Help: "Enrollment attempts by outcome.",
		}, []string{"outcome"}),
		gradesPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "registrar_grades_posted_total",
			Help: "Grades posted or corrected.",
		}),
	}
	registry.MustRegister(m.httpRequests, m.httpDuration, m.enrollAttempts, m.gradesPosted)
	return m
}

// RegisterDB exposes connection pool stats for the primary database.
func (m *MetricsService) RegisterDB(db *sqlx.DB, name string) {
	m.registry.MustRegister(collectors.NewDBStatsCollector(db.DB, name))
}

// ObserveRequest records one finished HTTP request.
func (m *MetricsService) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// CountEnrollAttempt records an enrollment attempt outcome, one of
// "enrolled", "rejected", "not_found" or "error".
func (m *MetricsService) CountEnrollAttempt(outcome string) {
	m.enrollAttempts.WithLabelValues(outcome).Inc()
}

// CountGradePosted records a grade write.
func (m *MetricsService) CountGradePosted() {
	m.gradesPosted.Inc()
}

// Handler serves the scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
