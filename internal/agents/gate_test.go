package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"graham/internal/domain/analysis"
)

func TestGateVerifiedROICOverridesNarrative(t *testing.T) {
	narrative := "Exceptional business, deeply undervalued, margin of safety of 50%.\n**DECISION: BUY**"

	got := EvaluateTierOne(narrative, map[string]float64{VerifiedROICKey: 0.08})
	assert.Equal(t, analysis.DecisionAvoid, got.Decision)
	assert.Contains(t, got.Reasoning, "ROIC")
	assert.Contains(t, got.Reasoning, "overridden")
}

func TestGateBuyWithSufficientMargin(t *testing.T) {
	narrative := "Quality compounder with a margin of safety of 31%.\n**DECISION: BUY**"

	got := EvaluateTierOne(narrative, map[string]float64{VerifiedROICKey: 0.22})
	assert.Equal(t, analysis.DecisionBuy, got.Decision)
}

func TestGateBuyDowngradedOnThinMargin(t *testing.T) {
	narrative := "Great business but only a margin of safety of 14% today.\n**DECISION: BUY**"

	got := EvaluateTierOne(narrative, map[string]float64{VerifiedROICKey: 0.22})
	assert.Equal(t, analysis.DecisionWatch, got.Decision)
	assert.Contains(t, got.Reasoning, "below")
}

func TestGateBuyDowngradedWhenMarginAbsent(t *testing.T) {
	got := EvaluateTierOne("Compelling story.\n**DECISION: BUY**", map[string]float64{VerifiedROICKey: 0.22})
	assert.Equal(t, analysis.DecisionWatch, got.Decision)
}

func TestGateNarrativeAvoidStands(t *testing.T) {
	got := EvaluateTierOne("Secular decline.\n**DECISION: AVOID**", map[string]float64{VerifiedROICKey: 0.30})
	assert.Equal(t, analysis.DecisionAvoid, got.Decision)
}

func TestGateNarrativeWatch(t *testing.T) {
	got := EvaluateTierOne("Fairly priced.\n**DECISION: WATCH**", map[string]float64{VerifiedROICKey: 0.30})
	assert.Equal(t, analysis.DecisionWatch, got.Decision)
}

func TestGateUnparseableNarrativeDefaultsToWatch(t *testing.T) {
	got := EvaluateTierOne("The model rambled and never committed.", nil)
	assert.Equal(t, analysis.DecisionWatch, got.Decision)
	assert.Contains(t, got.Reasoning, "no parseable")
}

func TestGateMissingVerifiedROICFallsThroughToNarrative(t *testing.T) {
	narrative := "Margin of safety of 40%.\n**DECISION: BUY**"
	got := EvaluateTierOne(narrative, map[string]float64{})
	assert.Equal(t, analysis.DecisionBuy, got.Decision)
}

func TestGateROICExactlyAtFloorIsNotOverridden(t *testing.T) {
	narrative := "Margin of safety of 30%.\n**DECISION: BUY**"
	got := EvaluateTierOne(narrative, map[string]float64{VerifiedROICKey: ROICFloor})
	assert.Equal(t, analysis.DecisionBuy, got.Decision)
}
