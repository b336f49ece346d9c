package gateway

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rehab360_gateway_requests_total",
		Help: "LLM gateway requests by kind and outcome",
	}, []string{"kind", "outcome"})

	gatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rehab360_gateway_request_duration_seconds",
		Help:    "Time until the LLM gateway answered, in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"kind"})
)

func observeRequest(kind string, err error, started time.Time) {
	gatewayRequestsTotal.WithLabelValues(kind, outcomeLabel(err)).Inc()
	gatewayRequestDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrGatewayRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrGatewayCreditsDepleted):
		return "credits_depleted"
	default:
		return "error"
	}
}
