package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clientdesk_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clientdesk_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	backendOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clientdesk_backend_operations_total",
		Help: "Count of data backend calls by operation and result",
	}, []string{"operation", "result"})

	backendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clientdesk_backend_operation_duration_seconds",
		Help:    "Duration of data backend calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "result"})

	clientsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clientdesk_clients_loaded",
		Help: "Number of clients returned by the most recent full list",
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clientdesk_active_sessions",
		Help: "Number of dashboards held in memory",
	})

	sessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clientdesk_sessions_swept_total",
		Help: "Count of idle dashboards evicted by the sweeper",
	})

	chaosEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clientdesk_chaos_events_total",
		Help: "Backend outages injected by the chaos monkey, by event",
	}, []string{"event"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clientdesk_http_requests_in_flight",
		Help: "Number of HTTP requests currently being served",
	})

	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "clientdesk_circuit_breaker_state",
		Help: "Circuit breaker state by name: 0 closed, 1 open, 2 half-open",
	}, []string{"name"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveBackend records one adapter call. result is "success" or "error".
func ObserveBackend(operation, result string, duration time.Duration) {
	backendOperations.WithLabelValues(operation, result).Inc()
	backendDuration.WithLabelValues(operation, result).Observe(duration.Seconds())
}

// SetClientsLoaded sets the gauge to the size of the last list
func SetClientsLoaded(count int) {
	if count < 0 {
		count = 0
	}
	clientsLoaded.Set(float64(count))
}

// SetActiveSessions sets the number of live dashboards
func SetActiveSessions(count int) {
	if count < 0 {
		count = 0
	}
	activeSessions.Set(float64(count))
}

// ObserveSweep adds evicted dashboards to the sweep counter
func ObserveSweep(evicted int) {
	sessionsSwept.Add(float64(evicted))
}

// ObserveChaos counts an injected outage event ("outage_start", "outage_end", "rejected_call")
func ObserveChaos(event string) {
	chaosEvents.WithLabelValues(event).Inc()
}

// SetBreakerState publishes the current state of a named circuit breaker
func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}
