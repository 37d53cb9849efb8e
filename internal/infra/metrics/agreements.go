package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		agreementsTotal,
		cancellationsTotal,
		providerCallsTotal,
		providerCallDuration,
	)
}

var (
	agreementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_agreements_total",
			Help: "Agreement creation attempts by outcome (created/conflict/invalid_discount/provider_error/error).",
		},
		[]string{"outcome"},
	)

	cancellationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_cancellations_total",
			Help: "Cancellation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	providerCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_provider_calls_total",
			Help: "Outbound payment-provider calls by operation and result.",
		},
		[]string{"operation", "result"},
	)

	providerCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billing_provider_call_duration_seconds",
			Help:    "Latency of outbound payment-provider calls.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func IncAgreement(outcome string) {
	agreementsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncCancellation(outcome string) {
	cancellationsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncProviderCall(operation, result string) {
	providerCallsTotal.WithLabelValues(norm(operation), norm(result)).Inc()
}

func ObserveProviderCall(operation string, seconds float64) {
	providerCallDuration.WithLabelValues(norm(operation)).Observe(seconds)
}
