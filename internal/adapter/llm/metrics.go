package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "fixy_llm_request_duration_seconds",
	Help:    "Latency of upstream chat completion calls.",
	Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 25},
}, []string{"model", "outcome"})

func observeRequest(model string, start time.Time, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case statusOf(err) == 429:
		outcome = "rate_limited"
	case statusOf(err) >= 500:
		outcome = "upstream_error"
	default:
		outcome = "error"
	}
	requestDuration.WithLabelValues(model, outcome).Observe(time.Since(start).Seconds())
}
