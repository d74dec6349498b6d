package agents

import (
	"regexp"
	"strconv"
	"strings"

	"graham/internal/domain/analysis"
)

// The synthesis prompt requires the model to end with rigid marker lines:
//
//	**DECISION: BUY|WATCH|AVOID**
//	**CONVICTION: HIGH|MODERATE|LOW**
//
// Screens use their own decision vocabularies on the same marker. Parsing
// is case-insensitive and tolerant of missing trailing asterisks; anything
// that doesn't match degrades to UNCLEAR, never to a guessed decision.
var (
	decisionPattern = regexp.MustCompile(
		`(?i)\*\*\s*DECISION:\s*(BUY|WATCH|AVOID|INVESTIGATE|PASS|NON_COMPLIANT|COMPLIANT|DOUBTFUL)\s*\**`,
	)
	convictionPattern = regexp.MustCompile(
		`(?i)\*\*\s*CONVICTION:\s*(HIGH|MODERATE|LOW)\s*\**`,
	)
	marginPattern = regexp.MustCompile(
		`(?i)margin[\s-]of[\s-]safety[^0-9%\-]{0,40}(-?\d+(?:\.\d+)?)\s*%`,
	)
)

// ParseDecision extracts the decision marker from the model's final text.
// The last marker wins: the model sometimes restates criteria before the
// closing verdict.
func ParseDecision(text string) analysis.Decision {
	matches := decisionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return analysis.DecisionUnclear
	}
	raw := strings.ToUpper(matches[len(matches)-1][1])
	return analysis.Decision(raw)
}

// ParseConviction extracts the conviction marker. Returns false when the
// text carries none; screens don't emit one.
func ParseConviction(text string) (analysis.Conviction, bool) {
	matches := convictionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return "", false
	}
	raw := strings.ToUpper(matches[len(matches)-1][1])
	return analysis.Conviction(raw), true
}

// ParseMarginOfSafety extracts a stated margin-of-safety percentage from
// narrative text, e.g. "margin of safety of 32%". Returns false when the
// text states none.
func ParseMarginOfSafety(text string) (float64, bool) {
	match := marginPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
