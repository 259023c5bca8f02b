// Package metrics provides Prometheus instrumentation for the flash server.
// It counts bag rotations and flashed messages, and tracks session backend
// throughput and latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Rotations counts flash stores constructed, one per request.
	Rotations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "phlash_rotations_total",
		Help: "Total number of flash bag rotations",
	})

	// PromotedMessages counts keys moved from the later bag to the now bag.
	PromotedMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "phlash_promoted_messages_total",
		Help: "Total number of flash keys promoted from later to now",
	})

	// FlashedMessages counts writes through the API, labeled by bag.
	FlashedMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "phlash_flashed_messages_total",
		Help: "Total number of flash messages written",
	}, []string{"bag"}) // bag = "now", "later"

	// RateLimited counts flash writes rejected by the rate limiter.
	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "phlash_rate_limited_total",
		Help: "Total number of flash writes rejected by rate limiting",
	})

	// SessionOperations counts session backend calls by outcome.
	SessionOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "phlash_session_operations_total",
		Help: "Total number of session backend operations",
	}, []string{"backend", "op", "result"}) // result = "ok", "not_found", "error"

	// SessionLatency records session backend latency in seconds.
	SessionLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "phlash_session_latency_seconds",
		Help:    "Session backend operation latency in seconds",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	}, []string{"backend", "op"})
)

func init() {
	prometheus.MustRegister(
		Rotations,
		PromotedMessages,
		FlashedMessages,
		RateLimited,
		SessionOperations,
		SessionLatency,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
