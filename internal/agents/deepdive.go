package agents

import (
	"context"
	"fmt"
	"time"

	"graham/internal/adapters/ai"
	"graham/internal/adapters/config"
	"graham/internal/domain/analysis"
	"graham/internal/tools/filings"
	"graham/pkg/logger"
)

// FilingFetcher is the slice of the filings client the controller uses.
// Historical fetches bypass the model-facing tool so the section and form
// type are fixed here, not left to model instruction-following.
type FilingFetcher interface {
	FetchFiling(ctx context.Context, ticker, filingType, section string, year int) (*filings.Filing, error)
}

// DeepDiveController manages the multi-year deep dive: full analysis of the
// current fiscal year, MD&A-only summaries of prior years, optional proxy
// statement review, then one synthesis call producing the final thesis.
type DeepDiveController struct {
	engine  *Engine
	filings FilingFetcher
	cfg     config.AgentConfig
	model   ai.ModelInfo
	tools   []ai.ToolDefinition
	log     *logger.Logger
}

// NewDeepDiveController creates a deep-dive controller.
func NewDeepDiveController(engine *Engine, fetcher FilingFetcher, cfg config.AgentConfig, model ai.ModelInfo, toolDefs []ai.ToolDefinition) *DeepDiveController {
	return &DeepDiveController{
		engine:  engine,
		filings: fetcher,
		cfg:     cfg,
		model:   model,
		tools:   toolDefs,
		log:     logger.Get().With("component", "deepdive"),
	}
}

// DeepDiveOutcome carries the final thesis plus aggregated execution
// metrics across every model call the dive made.
type DeepDiveOutcome struct {
	Decision      analysis.Decision
	Conviction    analysis.Conviction
	Thesis        string
	Gate          TierOneDecision
	YearsAnalyzed int
	Iterations    int
	ToolCallsMade int
	InputTokens   int
	OutputTokens  int
	CostUSD       float64
}

func (o *DeepDiveOutcome) absorb(r *RunResult) {
	if r == nil {
		return
	}
	o.Iterations += r.Iterations
	o.ToolCallsMade += r.ToolCallsMade
	o.InputTokens += r.InputTokens
	o.OutputTokens += r.OutputTokens
	o.CostUSD += r.CostUSD
}

// Run executes the deep dive. verified carries tool-sourced metrics for the
// gate (never model-stated numbers). The gate runs right after the
// current-year analysis; only a BUY unlocks the prior-year passes.
func (c *DeepDiveController) Run(ctx context.Context, ticker string, verified map[string]float64, tracker *CostTracker) (*DeepDiveOutcome, error) {
	outcome := &DeepDiveOutcome{YearsAnalyzed: 1}
	currentYear := time.Now().Year() - 1

	// Tier 1: full current-year analysis with the complete tool set.
	tier1, err := c.engine.Run(ctx, RunRequest{
		System:          analystSystemPrompt,
		Prompt:          currentYearPrompt(ticker, currentYear),
		Model:           c.model,
		Tools:           c.tools,
		MaxIterations:   c.cfg.MaxIterationsDeep,
		MaxOutputTokens: c.cfg.MaxOutputTokens,
		ThinkingBudget:  c.cfg.ThinkingBudget,
		Tracker:         tracker,
	})
	outcome.absorb(tier1)
	if err != nil {
		return outcome, err
	}

	outcome.Gate = EvaluateTierOne(tier1.Text, verified)
	c.log.Infow("Tier 1 gate evaluated",
		"ticker", ticker,
		"decision", outcome.Gate.Decision,
		"reasoning", outcome.Gate.Reasoning,
	)

	if outcome.Gate.Decision != analysis.DecisionBuy {
		outcome.Decision = outcome.Gate.Decision
		outcome.Conviction, _ = ParseConviction(tier1.Text)
		outcome.Thesis = tier1.Text + "\n\n[Gate] " + outcome.Gate.Reasoning
		return outcome, nil
	}

	// Tier 2: prior years, MD&A only. The controller issues these fetches
	// itself with fixed parameters.
	priorSummaries := make([]string, 0, c.cfg.YearsToAnalyze-1)
	for offset := 1; offset < c.cfg.YearsToAnalyze; offset++ {
		year := currentYear - offset

		filing, err := c.filings.FetchFiling(ctx, ticker, "10-K", "mda", year)
		if err != nil {
			c.log.Warnw("Prior-year filing unavailable, skipping",
				"ticker", ticker, "year", year, "error", err)
			continue
		}

		content, _, err := c.condenseIfOversized(ctx, ticker, year, filing.Content, tracker, outcome)
		if err != nil {
			return outcome, err
		}

		summary, err := c.engine.Run(ctx, RunRequest{
			System:          analystSystemPrompt,
			Prompt:          priorYearPrompt(ticker, year, content),
			Model:           c.model,
			MaxIterations:   1,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
			Tracker:         tracker,
		})
		outcome.absorb(summary)
		if err != nil {
			return outcome, err
		}

		priorSummaries = append(priorSummaries, fmt.Sprintf("Fiscal %d: %s", year, summary.Text))
		outcome.YearsAnalyzed++
	}

	proxySummary := ""
	if c.cfg.IncludeProxyStatement {
		proxySummary = c.analyzeProxy(ctx, ticker, currentYear, tracker, outcome)
	}

	synthesis, err := c.engine.Run(ctx, RunRequest{
		System:          analystSystemPrompt,
		Prompt:          synthesisPrompt(ticker, tier1.Text, priorSummaries, proxySummary),
		Model:           c.model,
		MaxIterations:   1,
		MaxOutputTokens: c.cfg.MaxOutputTokens,
		ThinkingBudget:  c.cfg.ThinkingBudget,
		Tracker:         tracker,
	})
	outcome.absorb(synthesis)
	if err != nil {
		return outcome, err
	}

	outcome.Thesis = synthesis.Text
	outcome.Decision = ParseDecision(synthesis.Text)
	outcome.Conviction, _ = ParseConviction(synthesis.Text)

	// Only BUY/WATCH/AVOID are valid synthesis verdicts; anything else is
	// reported as UNCLEAR rather than guessed.
	switch outcome.Decision {
	case analysis.DecisionBuy, analysis.DecisionWatch, analysis.DecisionAvoid:
	default:
		outcome.Decision = analysis.DecisionUnclear
	}

	return outcome, nil
}

// condenseIfOversized substitutes a standalone summary for a filing whose
// text exceeds the size threshold, reporting the reduction.
func (c *DeepDiveController) condenseIfOversized(ctx context.Context, ticker string, year int, content string, tracker *CostTracker, outcome *DeepDiveOutcome) (string, bool, error) {
	threshold := c.cfg.SummaryThresholdChars
	if threshold <= 0 || len(content) <= threshold {
		return content, false, nil
	}

	run, err := c.engine.Run(ctx, RunRequest{
		System:          analystSystemPrompt,
		Prompt:          summarizationPrompt(ticker, year, content),
		Model:           c.model,
		MaxIterations:   1,
		MaxOutputTokens: c.cfg.MaxOutputTokens,
		Tracker:         tracker,
	})
	outcome.absorb(run)
	if err != nil {
		return "", false, err
	}

	reduction := 100.0 * (1.0 - float64(len(run.Text))/float64(len(content)))
	c.log.Infow("Oversized filing summarized",
		"ticker", ticker,
		"year", year,
		"chars_before", len(content),
		"chars_after", len(run.Text),
		"reduction_pct", fmt.Sprintf("%.1f", reduction),
	)
	return run.Text, true, nil
}

// analyzeProxy fetches and reviews the proxy statement. Proxy failures
// degrade the dive, they don't abort it.
func (c *DeepDiveController) analyzeProxy(ctx context.Context, ticker string, year int, tracker *CostTracker, outcome *DeepDiveOutcome) string {
	proxy, err := c.filings.FetchFiling(ctx, ticker, "DEF 14A", "full", year)
	if err != nil {
		c.log.Warnw("Proxy statement unavailable, skipping", "ticker", ticker, "error", err)
		return ""
	}

	content, _, err := c.condenseIfOversized(ctx, ticker, year, proxy.Content, tracker, outcome)
	if err != nil {
		c.log.Warnw("Proxy summarization failed, skipping", "ticker", ticker, "error", err)
		return ""
	}

	run, err := c.engine.Run(ctx, RunRequest{
		System:          analystSystemPrompt,
		Prompt:          proxyPrompt(ticker, content),
		Model:           c.model,
		MaxIterations:   1,
		MaxOutputTokens: c.cfg.MaxOutputTokens,
		Tracker:         tracker,
	})
	outcome.absorb(run)
	if err != nil {
		c.log.Warnw("Proxy analysis failed, skipping", "ticker", ticker, "error", err)
		return ""
	}
	return run.Text
}
