package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"graham/internal/domain/analysis"
)

func TestParseDecision(t *testing.T) {
	cases := []struct {
		name string
		text string
		want analysis.Decision
	}{
		{"buy", "Strong franchise.\n\n**DECISION: BUY**\n**CONVICTION: HIGH**", analysis.DecisionBuy},
		{"avoid lowercase", "weak moat\n**decision: avoid**", analysis.DecisionAvoid},
		{"watch no trailing asterisks", "**DECISION: WATCH", analysis.DecisionWatch},
		{"investigate", "**DECISION: INVESTIGATE**", analysis.DecisionInvestigate},
		{"pass", "**DECISION: PASS**", analysis.DecisionPass},
		{"compliant", "**DECISION: COMPLIANT**", analysis.DecisionCompliant},
		{"non compliant", "**DECISION: NON_COMPLIANT**", analysis.DecisionNonCompliant},
		{"doubtful", "**DECISION: DOUBTFUL**", analysis.DecisionDoubtful},
		{"last marker wins", "criteria are **DECISION: BUY** or else\nfinal: **DECISION: WATCH**", analysis.DecisionWatch},
		{"missing marker", "I think this is a buy but I won't commit.", analysis.DecisionUnclear},
		{"empty", "", analysis.DecisionUnclear},
		{"prose mention only", "The DECISION here depends on price.", analysis.DecisionUnclear},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseDecision(tc.text))
		})
	}
}

func TestParseConviction(t *testing.T) {
	c, ok := ParseConviction("**DECISION: BUY**\n**CONVICTION: MODERATE**")
	assert.True(t, ok)
	assert.Equal(t, analysis.ConvictionModerate, c)

	_, ok = ParseConviction("**DECISION: COMPLIANT**")
	assert.False(t, ok)
}

func TestParseMarginOfSafety(t *testing.T) {
	m, ok := ParseMarginOfSafety("The DCF implies a margin of safety of 32.5% at today's price.")
	assert.True(t, ok)
	assert.InDelta(t, 32.5, m, 1e-9)

	m, ok = ParseMarginOfSafety("Margin of safety: -12% (overvalued).")
	assert.True(t, ok)
	assert.InDelta(t, -12.0, m, 1e-9)

	_, ok = ParseMarginOfSafety("There is no meaningful discount here.")
	assert.False(t, ok)
}
