package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatStreamsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rehab360_chat_streams_total",
		Help: "Chat function requests by outcome.",
	}, []string{"outcome"})

	chatStreamDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rehab360_chat_stream_duration_seconds",
		Help:    "Time from chat request to the end of the event stream.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
	})

	predictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rehab360_predictions_total",
		Help: "Predict function requests by outcome.",
	}, []string{"outcome"})

	predictionFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rehab360_prediction_fallbacks_total",
		Help: "Predict responses that carried the unavailable fallback body.",
	})
)
