package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	submissionsTotal       *prometheus.CounterVec
	enrollmentTransitions  *prometheus.CounterVec
	fanoutEventsTotal      *prometheus.CounterVec
	chatConnectionsGauge   prometheus.Gauge
	chatMessagesTotal      *prometheus.CounterVec
	rosterCacheLookupTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Submission attempts by assessment kind and outcome.",
		}, []string{"kind", "outcome"})

		enrollmentTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_transitions_total",
			Help: "Enrollment state changes by action.",
		}, []string{"action"})

		fanoutEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fanout_events_total",
			Help: "Room events published or delivered by transport and outcome.",
		}, []string{"transport", "outcome"})

		chatConnectionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chat_active_connections",
			Help: "Number of open room websocket connections.",
		})

		chatMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Chat messages persisted by room type.",
		}, []string{"type"})

		rosterCacheLookupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_cache_lookups_total",
			Help: "Course details cache lookups by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			submissionsTotal,
			enrollmentTransitions,
			fanoutEventsTotal,
			chatConnectionsGauge,
			chatMessagesTotal,
			rosterCacheLookupTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Submissions exposes the submission outcome counter.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// EnrollmentTransitions exposes the enrollment transition counter.
func EnrollmentTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return enrollmentTransitions
}

// FanoutEvents exposes the room event counter.
func FanoutEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return fanoutEventsTotal
}

// ChatConnections exposes the active websocket gauge.
func ChatConnections() prometheus.Gauge {
	RegisterMetrics()
	return chatConnectionsGauge
}

// ChatMessages exposes the persisted chat message counter.
func ChatMessages() *prometheus.CounterVec {
	RegisterMetrics()
	return chatMessagesTotal
}

// RosterCacheLookups exposes the course details cache counter.
func RosterCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return rosterCacheLookupTotal
}

// MetricsHandler exposes the Prometheus scrape endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
}
