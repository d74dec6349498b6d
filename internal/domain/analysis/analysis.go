package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Decision is the terminal verdict of a ticker-stage analysis. Screens and
// deep dives draw from different subsets; ERROR and UNCLEAR are first-class
// values so batch filtering always has something to gate on.
type Decision string

const (
	DecisionBuy          Decision = "BUY"
	DecisionWatch        Decision = "WATCH"
	DecisionAvoid        Decision = "AVOID"
	DecisionInvestigate  Decision = "INVESTIGATE"
	DecisionPass         Decision = "PASS"
	DecisionCompliant    Decision = "COMPLIANT"
	DecisionDoubtful     Decision = "DOUBTFUL"
	DecisionNonCompliant Decision = "NON_COMPLIANT"
	DecisionUnclear      Decision = "UNCLEAR"
	DecisionError        Decision = "ERROR"
)

// Conviction qualifies a deep-dive BUY/WATCH/AVOID verdict.
type Conviction string

const (
	ConvictionHigh     Conviction = "HIGH"
	ConvictionModerate Conviction = "MODERATE"
	ConvictionLow      Conviction = "LOW"
)

// Type identifies the analysis depth that produced a result.
type Type string

const (
	TypeSharia   Type = "sharia_screen"
	TypeQuick    Type = "quick_screen"
	TypeDeepDive Type = "deep_dive"
)

// TokenUsage accumulates provider-reported token counts and the derived
// dollar cost for one analysis run.
type TokenUsage struct {
	InputTokens  int     `json:"input_tokens" db:"input_tokens"`
	OutputTokens int     `json:"output_tokens" db:"output_tokens"`
	CostUSD      float64 `json:"cost_usd" db:"cost_usd"`
}

// Metadata captures execution metrics for one analysis run.
type Metadata struct {
	Iterations      int        `json:"iterations"`
	ToolCallsMade   int        `json:"tool_calls_made"`
	TokenUsage      TokenUsage `json:"token_usage"`
	AnalysisType    Type       `json:"analysis_type"`
	YearsAnalyzed   int        `json:"years_analyzed"`
	DurationSeconds float64    `json:"duration_seconds"`
	Error           string     `json:"error,omitempty"`
}

// Result is the immutable outcome of one ticker-stage run.
type Result struct {
	ID         uuid.UUID  `json:"id"`
	Ticker     string     `json:"ticker"`
	Decision   Decision   `json:"decision"`
	Conviction Conviction `json:"conviction,omitempty"`
	Thesis     string     `json:"thesis"`
	Metadata   Metadata   `json:"metadata"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewErrorResult builds an ERROR-decision result for a failed run. ERROR is
// displayed like any other decision but never passes a protocol stage gate.
func NewErrorResult(ticker string, analysisType Type, err error) *Result {
	return &Result{
		ID:       uuid.New(),
		Ticker:   ticker,
		Decision: DecisionError,
		Thesis:   "Analysis failed: " + err.Error(),
		Metadata: Metadata{
			AnalysisType: analysisType,
			Error:        err.Error(),
		},
		CreatedAt: time.Now(),
	}
}

// Repository is the persistence boundary for analysis results. The core
// treats it purely as a sink/source; schema is an adapter concern.
type Repository interface {
	Save(ctx context.Context, result *Result) error
	Load(ctx context.Context, id uuid.UUID) (*Result, error)
	History(ctx context.Context, ticker string, limit int) ([]*Result, error)
}
