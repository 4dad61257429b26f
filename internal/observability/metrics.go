package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	notificationsTotal    *prometheus.CounterVec
	dispatchAttemptsTotal *prometheus.CounterVec
	checksScoredTotal     *prometheus.CounterVec
	requestLatencySeconds *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors used across the
// evaluation services.
func RegisterMetrics() {
	registerOnce.Do(func() {
		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eval_notifications_total",
			Help: "Inbound completion notifications by outcome (accepted, rejected, invalid).",
		}, []string{"outcome"})

		dispatchAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eval_dispatch_attempts_total",
			Help: "Task dispatch attempts by round and delivery outcome.",
		}, []string{"round", "outcome"})

		checksScoredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eval_checks_scored_total",
			Help: "Scored checks appended to the ledger, by check name.",
		}, []string{"check"})

		requestLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eval_request_latency_seconds",
			Help:    "Latency distribution for receiver HTTP requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		prometheus.MustRegister(notificationsTotal, dispatchAttemptsTotal, checksScoredTotal, requestLatencySeconds)
	})
}

// Notifications exposes the notification outcome counter.
func Notifications() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// DispatchAttempts exposes the dispatch attempt counter.
func DispatchAttempts() *prometheus.CounterVec {
	RegisterMetrics()
	return dispatchAttemptsTotal
}

// ChecksScored exposes the scored check counter.
func ChecksScored() *prometheus.CounterVec {
	RegisterMetrics()
	return checksScoredTotal
}

// RequestLatency exposes the receiver latency histogram.
func RequestLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return requestLatencySeconds
}
