// internal/dispatch/metrics.go
package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	passTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pacer_pass_total",
		Help: "Completed scheduler passes.",
	})

	passDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pacer_pass_duration_seconds",
		Help:    "Wall time of one full scheduler pass.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	ruleOutcomeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pacer_rule_outcome_total",
		Help: "Per-rule dispatch outcomes, labelled by audit status.",
	}, []string{"status"})
)
