package agents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graham/internal/adapters/ai"
	"graham/internal/adapters/config"
	"graham/internal/domain/analysis"
	"graham/internal/tools"
	"graham/internal/tools/filings"
)

type recordedFetch struct {
	FilingType string
	Section    string
	Year       int
}

type recordingFetcher struct {
	calls   []recordedFetch
	content string
}

func (f *recordingFetcher) FetchFiling(_ context.Context, ticker, filingType, section string, year int) (*filings.Filing, error) {
	f.calls = append(f.calls, recordedFetch{FilingType: filingType, Section: section, Year: year})
	return &filings.Filing{
		Ticker:     ticker,
		FilingType: filingType,
		Section:    section,
		FiscalYear: year,
		Content:    f.content,
	}, nil
}

func deepDiveConfig(years int) config.AgentConfig {
	return config.AgentConfig{
		MaxIterationsQuick:    15,
		MaxIterationsDeep:     30,
		MaxOutputTokens:       2048,
		YearsToAnalyze:        years,
		SummaryThresholdChars: 60000,
	}
}

func buyTierOneResponse() *ai.ChatResponse {
	return textResponse("Durable moat, margin of safety of 40%.\n**DECISION: BUY**\n**CONVICTION: HIGH**")
}

func TestDeepDivePriorYearsAreMDAOnly(t *testing.T) {
	responses := []*ai.ChatResponse{buyTierOneResponse()}
	for i := 0; i < 5; i++ {
		responses = append(responses, textResponse("management narrative held up"))
	}
	responses = append(responses, textResponse("Consistent record, margin of safety of 35%.\n**DECISION: BUY**\n**CONVICTION: HIGH**"))

	provider := &scriptedProvider{responses: responses}
	fetcher := &recordingFetcher{content: "MD&A body"}

	controller := NewDeepDiveController(
		NewEngine(provider, tools.NewRegistry(), 0),
		fetcher,
		deepDiveConfig(6),
		testModel(),
		nil,
	)

	outcome, err := controller.Run(context.Background(), "AAPL", map[string]float64{VerifiedROICKey: 0.25}, NewCostTracker())
	require.NoError(t, err)

	assert.Equal(t, analysis.DecisionBuy, outcome.Decision)
	assert.Equal(t, analysis.ConvictionHigh, outcome.Conviction)
	assert.Equal(t, 6, outcome.YearsAnalyzed)

	// Every historical fetch is a 10-K MD&A issued by the controller; no
	// call may request the full document.
	require.Len(t, fetcher.calls, 5)
	currentYear := time.Now().Year() - 1
	for i, call := range fetcher.calls {
		assert.Equal(t, "10-K", call.FilingType)
		assert.Equal(t, "mda", call.Section)
		assert.Equal(t, currentYear-1-i, call.Year)
		assert.NotEqual(t, "full", call.Section)
	}
}

func TestDeepDiveGateBlocksTierTwo(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{buyTierOneResponse()}}
	fetcher := &recordingFetcher{content: "MD&A body"}

	controller := NewDeepDiveController(
		NewEngine(provider, tools.NewRegistry(), 0),
		fetcher,
		deepDiveConfig(6),
		testModel(),
		nil,
	)

	// Verified ROIC below the floor: AVOID, and no historical fetches at all.
	outcome, err := controller.Run(context.Background(), "AAPL", map[string]float64{VerifiedROICKey: 0.05}, NewCostTracker())
	require.NoError(t, err)

	assert.Equal(t, analysis.DecisionAvoid, outcome.Decision)
	assert.Equal(t, 1, outcome.YearsAnalyzed)
	assert.Empty(t, fetcher.calls)
	assert.Equal(t, 1, provider.calls)
	assert.Contains(t, outcome.Thesis, "overridden")
}

func TestDeepDiveSummarizesOversizedFiling(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}

	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		buyTierOneResponse(),
		textResponse("condensed filing summary"),
		textResponse("prior year summary"),
		textResponse("**DECISION: WATCH**\n**CONVICTION: MODERATE**"),
	}}
	fetcher := &recordingFetcher{content: string(long)}

	cfg := deepDiveConfig(2)
	cfg.SummaryThresholdChars = 100

	controller := NewDeepDiveController(
		NewEngine(provider, tools.NewRegistry(), 0),
		fetcher,
		cfg,
		testModel(),
		nil,
	)

	outcome, err := controller.Run(context.Background(), "AAPL", map[string]float64{VerifiedROICKey: 0.25}, NewCostTracker())
	require.NoError(t, err)

	// tier1 + summarization + prior-year pass + synthesis
	assert.Equal(t, 4, provider.calls)
	assert.Equal(t, analysis.DecisionWatch, outcome.Decision)
}

func TestDeepDiveUnparseableSynthesisIsUnclear(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		buyTierOneResponse(),
		textResponse("prior year summary"),
		textResponse("I remain torn on this one."),
	}}
	fetcher := &recordingFetcher{content: "MD&A body"}

	controller := NewDeepDiveController(
		NewEngine(provider, tools.NewRegistry(), 0),
		fetcher,
		deepDiveConfig(2),
		testModel(),
		nil,
	)

	outcome, err := controller.Run(context.Background(), "AAPL", map[string]float64{VerifiedROICKey: 0.25}, NewCostTracker())
	require.NoError(t, err)
	assert.Equal(t, analysis.DecisionUnclear, outcome.Decision)
}
