// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"prophet-betting/internal/apperr"
)

var (
	Stakes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prophet_stakes_total",
		Help: "Stake attempts by result code",
	}, []string{"result"})

	Resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prophet_resolutions_total",
		Help: "Resolution attempts by arbitrator type and result code",
	}, []string{"arbitrator_type", "result"})

	JudgeCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prophet_judge_calls_total",
		Help: "AI judge calls (ok, error, fallback)",
	}, []string{"result"})

	PayoutCredits = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "prophet_payout_credits",
		Help:    "Credits paid out per resolved bet",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
)

func init() {
	prometheus.MustRegister(Stakes, Resolutions, JudgeCalls, PayoutCredits)
}

// Result maps an error to a label value: "ok" for nil, the code of an
// application error, or "error".
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	if e, ok := apperr.As(err); ok {
		return e.Code
	}
	return "error"
}
