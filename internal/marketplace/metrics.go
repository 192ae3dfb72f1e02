// internal/marketplace/metrics.go
package marketplace

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pacer_token_refresh_total",
		Help: "Token refresh attempts against the marketplace auth endpoint.",
	}, []string{"result"})

	authRetryTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pacer_auth_retry_total",
		Help: "Calls retried once after an auth failure and forced refresh.",
	})
)
