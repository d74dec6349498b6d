package agents

import (
	"sync"

	"graham/internal/adapters/ai"
)

// CostTracker accumulates token usage and dollar cost per model across the
// provider calls of one analysis run (or a whole batch when shared).
type CostTracker struct {
	mu    sync.RWMutex
	costs map[string]*ModelCost
}

// ModelCost tracks accumulated usage for a specific model.
type ModelCost struct {
	ModelID      string
	InputTokens  int64
	OutputTokens int64
	TotalCostUSD float64
	CallCount    int64
}

// NewCostTracker creates a new cost tracker.
func NewCostTracker() *CostTracker {
	return &CostTracker{
		costs: make(map[string]*ModelCost),
	}
}

// RecordUsage records token usage for a model and returns the cost of this
// call. Totals only ever grow.
func (ct *CostTracker) RecordUsage(model ai.ModelInfo, inputTokens, outputTokens int) float64 {
	cost := CalculateCost(model, inputTokens, outputTokens)

	ct.mu.Lock()
	defer ct.mu.Unlock()

	mc, exists := ct.costs[model.Name]
	if !exists {
		mc = &ModelCost{ModelID: model.Name}
		ct.costs[model.Name] = mc
	}

	mc.InputTokens += int64(inputTokens)
	mc.OutputTokens += int64(outputTokens)
	mc.TotalCostUSD += cost
	mc.CallCount++

	return cost
}

// GetCost returns accumulated cost data for a specific model.
func (ct *CostTracker) GetCost(modelID string) (ModelCost, bool) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	mc, ok := ct.costs[modelID]
	if !ok {
		return ModelCost{}, false
	}
	return *mc, true
}

// TotalCost returns the total cost across all models.
func (ct *CostTracker) TotalCost() float64 {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	var total float64
	for _, mc := range ct.costs {
		total += mc.TotalCostUSD
	}
	return total
}

// TotalTokens returns total input and output tokens across all models.
func (ct *CostTracker) TotalTokens() (input, output int64) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	for _, mc := range ct.costs {
		input += mc.InputTokens
		output += mc.OutputTokens
	}
	return input, output
}

// Reset clears all cost data.
func (ct *CostTracker) Reset() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.costs = make(map[string]*ModelCost)
}

// CalculateCost prices a single call from the model's per-1K rates.
func CalculateCost(model ai.ModelInfo, inputTokens, outputTokens int) float64 {
	inputCost := float64(inputTokens) / 1_000.0 * model.InputCostPer1K
	outputCost := float64(outputTokens) / 1_000.0 * model.OutputCostPer1K
	return inputCost + outputCost
}
