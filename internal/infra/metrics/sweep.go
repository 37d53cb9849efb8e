package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(sweepExpiredTotal)
}

var sweepExpiredTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "billing_sweep_expired_total",
		Help: "Subscriptions moved to expired by the period sweep.",
	},
)

func IncSweepExpired(n int) {
	sweepExpiredTotal.Add(float64(n))
}
