package billing

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signRequestsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_sign_requests_total",
		Help: "Sign requests dispatched to the remote signer.",
	}, []string{"flow"})

	signOutcomesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_sign_outcomes_total",
		Help: "Resolved sign requests by outcome.",
	}, []string{"flow", "outcome"})

	skippedChargesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_skipped_charges_total",
		Help: "Charges skipped because the account had unsubscribed.",
	})

	inFlightGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "billing_sign_requests_in_flight",
		Help: "Sign requests awaiting a signer outcome in this process.",
	})

	signerRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: "signer",
		Name:      "request_duration_seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"method", "path", "status"})

	signerRequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "signer",
		Name:      "request_errors_total",
	}, []string{"method", "path"})
)

// SignerHTTPMetrics records signer gateway calls.
type SignerHTTPMetrics struct{}

func (SignerHTTPMetrics) RecordRequestDuration(method, path string, statusCode int, duration time.Duration) {
	signerRequestDuration.WithLabelValues(method, path, strconv.Itoa(statusCode)).Observe(duration.Seconds())
}

func (SignerHTTPMetrics) RecordRequestError(method, path string) {
	signerRequestErrors.WithLabelValues(method, path).Inc()
}
