package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusbus_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campusbus_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	dualWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusbus_dual_writes_total",
		Help: "Count of dual-write operations by collection and outcome (local/both)",
	}, []string{"collection", "outcome"})

	remoteStoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusbus_remote_store_errors_total",
		Help: "Count of swallowed remote-store failures by collection and operation",
	}, []string{"collection", "operation"})

	bookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusbus_bookings_total",
		Help: "Count of booking attempts by result",
	}, []string{"result"})

	broadcastEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusbus_broadcast_events_total",
		Help: "Count of broadcast hub events by type and origin (local/remote)",
	}, []string{"type", "origin"})

	broadcastSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campusbus_broadcast_subscribers",
		Help: "Number of live broadcast hub subscribers",
	})

	otpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusbus_otp_requests_total",
		Help: "Count of password-reset OTP requests by result",
	}, []string{"result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveDualWrite increments the dual-write counter for a collection.
func ObserveDualWrite(collection, outcome string) {
	dualWritesTotal.WithLabelValues(collection, outcome).Inc()
}

// ObserveRemoteStoreError counts a swallowed remote-store failure.
func ObserveRemoteStoreError(collection, operation string) {
	remoteStoreErrors.WithLabelValues(collection, operation).Inc()
}

// ObserveBooking records the result of a booking attempt.
func ObserveBooking(result string) {
	bookingsTotal.WithLabelValues(result).Inc()
}

// ObserveBroadcast records one fanned-out hub event.
func ObserveBroadcast(eventType, origin string) {
	broadcastEvents.WithLabelValues(eventType, origin).Inc()
}

// SetSubscribers sets the subscriber gauge.
func SetSubscribers(count int) {
	if count < 0 {
		count = 0
	}
	broadcastSubscribers.Set(float64(count))
}

// ObserveOTPRequest records the result of an OTP request.
func ObserveOTPRequest(result string) {
	otpRequestsTotal.WithLabelValues(result).Inc()
}
