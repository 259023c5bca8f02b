package session

import (
	"errors"
	"time"

	"github.com/whisper/phlash/internal/metrics"
)

// observe records the outcome and latency of one backend operation. errp is
// read when the deferred call runs, after the named result has been set.
func observe(backend, op string, start time.Time, errp *error) {
	result := "ok"
	switch {
	case *errp == nil:
	case errors.Is(*errp, ErrNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	metrics.SessionOperations.WithLabelValues(backend, op, result).Inc()
	metrics.SessionLatency.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}
