package service

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the enrollment
// pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	outcomes        *prometheus.CounterVec
	registerRetries prometheus.Histogram
}

// NewMetricsService registers the service's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Provider webhook events by handling category",
	}, []string{"category"})

	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_outcomes_total",
		Help: "Terminal enrollment outcomes by result or failed stage",
	}, []string{"result"})

	registerRetries := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "enrollment_registration_attempts",
		Help:    "Registration attempts consumed before a terminal state",
		Buckets: []float64{1, 2, 3, 5, 10, 20, 40, 60},
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, webhookEvents, outcomes, registerRetries, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		webhookEvents:   webhookEvents,
		outcomes:        outcomes,
		registerRetries: registerRetries,
	}
}

// Handler serves the /metrics scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	return m.handler
}

// ObserveHTTPRequest records one handled HTTP request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": httpStatusLabel(status),
	}
	m.requestDuration.With(labels).Observe(duration.Seconds())
	m.requestTotal.With(labels).Inc()
}

// ObserveWebhookEvent counts one provider event by handling category.
func (m *MetricsService) ObserveWebhookEvent(category string) {
	m.webhookEvents.WithLabelValues(category).Inc()
}

// ObserveOutcome counts a terminal enrollment outcome.
func (m *MetricsService) ObserveOutcome(result string) {
	m.outcomes.WithLabelValues(result).Inc()
}

// ObserveRegistrationAttempts records how many creation attempts one
// orchestration consumed.
func (m *MetricsService) ObserveRegistrationAttempts(attempts int) {
	m.registerRetries.Observe(float64(attempts))
}

func httpStatusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
