package batch

import (
	"graham/internal/domain/analysis"
	"graham/pkg/errors"
)

// Stage is one step of a screening protocol. A ticker advances to the next
// stage only when its decision here is in PassDecisions.
type Stage struct {
	Name          string
	AnalysisType  analysis.Type
	PassDecisions []analysis.Decision
}

// Passes reports whether a decision advances past this stage. ERROR and
// UNCLEAR never pass, whatever the stage's pass list says: an ambiguous or
// failed run must not buy its way into a more expensive stage.
func (s Stage) Passes(d analysis.Decision) bool {
	if d == analysis.DecisionError || d == analysis.DecisionUnclear {
		return false
	}
	for _, pass := range s.PassDecisions {
		if d == pass {
			return true
		}
	}
	return false
}

// Protocol is a named multi-stage funnel.
type Protocol struct {
	ID     string
	Name   string
	Stages []Stage
}

var protocols = map[string]Protocol{
	"value_funnel": {
		ID:   "value_funnel",
		Name: "Sharia screen, quick screen, deep dive",
		Stages: []Stage{
			{
				Name:          "sharia_screen",
				AnalysisType:  analysis.TypeSharia,
				PassDecisions: []analysis.Decision{analysis.DecisionCompliant},
			},
			{
				Name:          "quick_screen",
				AnalysisType:  analysis.TypeQuick,
				PassDecisions: []analysis.Decision{analysis.DecisionInvestigate},
			},
			{
				Name:          "deep_dive",
				AnalysisType:  analysis.TypeDeepDive,
				PassDecisions: []analysis.Decision{analysis.DecisionBuy},
			},
		},
	},
	"conventional_funnel": {
		ID:   "conventional_funnel",
		Name: "Quick screen, deep dive",
		Stages: []Stage{
			{
				Name:          "quick_screen",
				AnalysisType:  analysis.TypeQuick,
				PassDecisions: []analysis.Decision{analysis.DecisionInvestigate},
			},
			{
				Name:          "deep_dive",
				AnalysisType:  analysis.TypeDeepDive,
				PassDecisions: []analysis.Decision{analysis.DecisionBuy},
			},
		},
	},
	"sharia_only": {
		ID:   "sharia_only",
		Name: "Sharia compliance screen",
		Stages: []Stage{
			{
				Name:          "sharia_screen",
				AnalysisType:  analysis.TypeSharia,
				PassDecisions: []analysis.Decision{analysis.DecisionCompliant},
			},
		},
	},
}

// GetProtocol resolves a protocol id. An unknown id is a programmer error
// and propagates to the caller.
func GetProtocol(id string) (Protocol, error) {
	p, ok := protocols[id]
	if !ok {
		return Protocol{}, errors.Wrapf(errors.ErrUnknownProtocol, "%q", id)
	}
	return p, nil
}

// ProtocolIDs lists the available protocol ids.
func ProtocolIDs() []string {
	ids := make([]string, 0, len(protocols))
	for id := range protocols {
		ids = append(ids, id)
	}
	return ids
}
