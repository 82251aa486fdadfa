package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapis",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	slotsRequested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zapis",
			Name:      "slots_requests_total",
			Help:      "Availability lookups served.",
		},
	)

	codesIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zapis",
			Name:      "verification_codes_issued_total",
			Help:      "Verification codes issued to phones.",
		},
	)

	codesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapis",
			Name:      "verification_codes_consumed_total",
			Help:      "Verification code consumption attempts by result.",
		},
		[]string{"result"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapis",
			Name:      "bookings_total",
			Help:      "Public booking commits by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, slotsRequested, codesIssued, codesConsumed, bookings)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncSlotsRequested counts one availability lookup.
func IncSlotsRequested() {
	slotsRequested.Inc()
}

// IncCodeIssued counts one issued verification code.
func IncCodeIssued() {
	codesIssued.Inc()
}

// IncCodeConsumed counts one consumption attempt ("ok" or "rejected").
func IncCodeConsumed(result string) {
	codesConsumed.WithLabelValues(result).Inc()
}

// IncBooking counts one commit attempt ("committed", "conflict", "error").
func IncBooking(result string) {
	bookings.WithLabelValues(result).Inc()
}
