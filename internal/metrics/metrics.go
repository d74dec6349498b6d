package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LLMRequests counts provider calls by provider, model and outcome.
	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graham",
		Subsystem: "llm",
		Name:      "requests_total",
		Help:      "LLM provider requests",
	}, []string{"provider", "model", "status"})

	// LLMTokens counts tokens by model and direction.
	LLMTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graham",
		Subsystem: "llm",
		Name:      "tokens_total",
		Help:      "LLM tokens consumed",
	}, []string{"model", "direction"})

	// LLMCostUSD accumulates spend by model.
	LLMCostUSD = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graham",
		Subsystem: "llm",
		Name:      "cost_usd_total",
		Help:      "LLM spend in USD",
	}, []string{"model"})

	// ToolCalls counts tool dispatches by tool and outcome.
	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graham",
		Subsystem: "tools",
		Name:      "calls_total",
		Help:      "Tool calls executed",
	}, []string{"tool", "status"})

	// Analyses counts completed ticker-stage runs by type and decision.
	Analyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graham",
		Subsystem: "analysis",
		Name:      "completed_total",
		Help:      "Completed analyses",
	}, []string{"type", "decision"})

	// BatchTickers counts batch ticker outcomes per stage.
	BatchTickers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graham",
		Subsystem: "batch",
		Name:      "tickers_total",
		Help:      "Batch ticker-stage outcomes",
	}, []string{"stage", "outcome"})
)

// RecordLLMCall records one provider round-trip.
func RecordLLMCall(provider, model string, ok bool, inputTokens, outputTokens int, costUSD float64) {
	status := "ok"
	if !ok {
		status = "error"
	}
	LLMRequests.WithLabelValues(provider, model, status).Inc()
	if ok {
		LLMTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
		LLMTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
		LLMCostUSD.WithLabelValues(model).Add(costUSD)
	}
}

// RecordToolCall records one tool dispatch.
func RecordToolCall(tool string, success bool) {
	status := "ok"
	if !success {
		status = "error"
	}
	ToolCalls.WithLabelValues(tool, status).Inc()
}
