package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	adminRequestsTotal  *prometheus.CounterVec
	adminLatencySeconds *prometheus.HistogramVec
	adminErrorsTotal    *prometheus.CounterVec
	callbacksTotal      *prometheus.CounterVec
	creditsTotal        *prometheus.CounterVec
	dispatchFailures    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		adminRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Total number of admin API requests served.",
		}, []string{"method", "route", "status"})

		adminLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		adminErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		callbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_callbacks_total",
			Help: "Total number of grading callbacks received, by outcome.",
		}, []string{"outcome"})

		creditsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "points_credits_total",
			Help: "Total number of point credits applied to the ledger, by origin.",
		}, []string{"origin"})

		dispatchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_dispatch_failures_total",
			Help: "Total number of failed outbound grading service calls.",
		}, []string{"operation"})

		prometheus.MustRegister(adminRequestsTotal, adminLatencySeconds, adminErrorsTotal,
			callbacksTotal, creditsTotal, dispatchFailures)
	})
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return adminRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return adminLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return adminErrorsTotal
}

// GradingCallbacks exposes the counter for inbound grading callbacks.
func GradingCallbacks() *prometheus.CounterVec {
	RegisterMetrics()
	return callbacksTotal
}

// PointsCredits exposes the counter for applied ledger credits.
func PointsCredits() *prometheus.CounterVec {
	RegisterMetrics()
	return creditsTotal
}

// DispatchFailures exposes the counter for failed grading dispatch calls.
func DispatchFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return dispatchFailures
}
