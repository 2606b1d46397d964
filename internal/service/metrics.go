package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcomes.
const (
	outcomeSuccess     = "success"
	outcomeRateLimited = "rate_limited"
	outcomeLLMError    = "llm_error"
	outcomeMalformed   = "malformed"
)

// Confirmation outcomes.
const (
	confirmMinted       = "minted"
	confirmExecuted     = "executed"
	confirmFailed       = "failed"
	confirmDeclined     = "declined"
	confirmNotFound     = "not_found"
	confirmUnauthorized = "unauthorized"
)

var (
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fixy_turns_total",
		Help: "Assistant turns by outcome.",
	}, []string{"outcome"})

	toolExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fixy_tool_executions_total",
		Help: "Tool executions by tool and result.",
	}, []string{"tool", "result"})

	confirmationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fixy_confirmations_total",
		Help: "Pending confirmations by outcome.",
	}, []string{"outcome"})

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fixy_rate_limited_total",
		Help: "Turns rejected by the per-tenant rate limiter.",
	})
)
