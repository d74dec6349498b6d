package agents

import (
	"fmt"

	"graham/internal/domain/analysis"
)

// Tier-1 gate thresholds. The gate is the cost-control point: only a BUY
// here unlocks the expensive multi-year deep dive.
const (
	// ROICFloor is the minimum acceptable 10-year-average return on
	// invested capital, as a fraction.
	ROICFloor = 0.10

	// MarginOfSafetyMin is the minimum stated margin of safety, in
	// percent, for a narrative BUY to survive the gate.
	MarginOfSafetyMin = 25.0

	// VerifiedROICKey names the tool-sourced metric in VerifiedMetrics.
	VerifiedROICKey = "roic_10y_avg"
)

// TierOneDecision is the gate's verdict on a first-pass analysis.
type TierOneDecision struct {
	Decision        analysis.Decision
	Reasoning       string
	VerifiedMetrics map[string]float64
}

// EvaluateTierOne applies the decision precedence to a first-pass narrative
// and externally verified metrics. Rules, in order:
//
//  1. Verified ROIC below the floor forces AVOID regardless of narrative.
//     Tool-sourced numbers are authoritative; model arithmetic is advisory.
//  2. A narrative AVOID stands.
//  3. A narrative BUY needs a stated margin of safety at or above the
//     minimum; otherwise it is downgraded to WATCH.
//  4. Everything else, including a missing or unparseable marker, lands on
//     WATCH. Ambiguity never resolves toward the expensive path.
func EvaluateTierOne(narrative string, verified map[string]float64) TierOneDecision {
	out := TierOneDecision{VerifiedMetrics: verified}

	if roic, ok := verified[VerifiedROICKey]; ok && roic < ROICFloor {
		out.Decision = analysis.DecisionAvoid
		out.Reasoning = fmt.Sprintf(
			"verified 10-year average ROIC %.1f%% is below the %.0f%% floor; narrative overridden",
			roic*100, ROICFloor*100,
		)
		return out
	}

	switch ParseDecision(narrative) {
	case analysis.DecisionAvoid:
		out.Decision = analysis.DecisionAvoid
		out.Reasoning = "narrative analysis concluded AVOID"

	case analysis.DecisionBuy:
		margin, stated := ParseMarginOfSafety(narrative)
		switch {
		case stated && margin >= MarginOfSafetyMin:
			out.Decision = analysis.DecisionBuy
			out.Reasoning = fmt.Sprintf("narrative BUY with %.1f%% margin of safety", margin)
		case stated:
			out.Decision = analysis.DecisionWatch
			out.Reasoning = fmt.Sprintf(
				"narrative BUY downgraded: %.1f%% margin of safety is below the %.0f%% minimum",
				margin, MarginOfSafetyMin,
			)
		default:
			out.Decision = analysis.DecisionWatch
			out.Reasoning = "narrative BUY downgraded: no margin of safety stated"
		}

	case analysis.DecisionWatch:
		out.Decision = analysis.DecisionWatch
		out.Reasoning = "narrative analysis concluded WATCH"

	default:
		out.Decision = analysis.DecisionWatch
		out.Reasoning = "no parseable decision marker; defaulting to WATCH"
	}

	return out
}
