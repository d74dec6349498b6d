package agents

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"graham/internal/adapters/ai"
	"graham/internal/adapters/config"
	"graham/internal/domain/analysis"
	"graham/internal/metrics"
	"graham/internal/tools"
	"graham/pkg/errors"
	"graham/pkg/logger"
)

// ROICSource provides the externally verified ROIC average the gate trusts
// over model prose.
type ROICSource interface {
	AverageROIC(ctx context.Context, ticker string) (float64, int, error)
}

// Analyzer runs one ticker through one analysis stage and assembles the
// persisted result. Run failures become ERROR-decision results; only
// persistence failures surface as errors.
type Analyzer struct {
	engine   *Engine
	deepDive *DeepDiveController
	roic     ROICSource
	registry *tools.Registry
	repo     analysis.Repository
	cfg      config.AgentConfig
	model    ai.ModelInfo
	log      *logger.Logger
}

// NewAnalyzer creates an analyzer. repo may be nil when persistence is
// handled by the caller.
func NewAnalyzer(engine *Engine, deepDive *DeepDiveController, roic ROICSource, registry *tools.Registry, repo analysis.Repository, cfg config.AgentConfig, model ai.ModelInfo) *Analyzer {
	return &Analyzer{
		engine:   engine,
		deepDive: deepDive,
		roic:     roic,
		registry: registry,
		repo:     repo,
		cfg:      cfg,
		model:    model,
		log:      logger.Get().With("component", "analyzer"),
	}
}

// Analyze runs the requested analysis type for a ticker.
func (a *Analyzer) Analyze(ctx context.Context, ticker string, analysisType analysis.Type) (*analysis.Result, error) {
	start := time.Now()

	var result *analysis.Result
	switch analysisType {
	case analysis.TypeSharia:
		result = a.runScreen(ctx, ticker, analysisType, shariaScreenPrompt(ticker),
			analysis.DecisionCompliant, analysis.DecisionDoubtful, analysis.DecisionNonCompliant)
	case analysis.TypeQuick:
		result = a.runScreen(ctx, ticker, analysisType, quickScreenPrompt(ticker),
			analysis.DecisionInvestigate, analysis.DecisionPass)
	case analysis.TypeDeepDive:
		result = a.runDeepDive(ctx, ticker)
	default:
		result = analysis.NewErrorResult(ticker, analysisType,
			errors.Wrapf(errors.ErrInvalidInput, "unknown analysis type %s", analysisType))
	}

	result.Metadata.DurationSeconds = time.Since(start).Seconds()
	metrics.Analyses.WithLabelValues(string(analysisType), string(result.Decision)).Inc()

	a.log.Infow("Analysis completed",
		"ticker", ticker,
		"type", analysisType,
		"decision", result.Decision,
		"iterations", result.Metadata.Iterations,
		"tokens", humanize.Comma(int64(result.Metadata.TokenUsage.InputTokens+result.Metadata.TokenUsage.OutputTokens)),
		"cost_usd", result.Metadata.TokenUsage.CostUSD,
	)

	if a.repo != nil {
		if err := a.repo.Save(ctx, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

// runScreen executes a single-conversation screening run and validates the
// parsed decision against the stage's vocabulary.
func (a *Analyzer) runScreen(ctx context.Context, ticker string, analysisType analysis.Type, prompt string, allowed ...analysis.Decision) *analysis.Result {
	run, err := a.engine.Run(ctx, RunRequest{
		System:          analystSystemPrompt,
		Prompt:          prompt,
		Model:           a.model,
		Tools:           a.registry.Definitions(),
		MaxIterations:   a.cfg.MaxIterationsQuick,
		MaxOutputTokens: a.cfg.MaxOutputTokens,
		ThinkingBudget:  a.cfg.ThinkingBudget,
	})
	if err != nil {
		result := analysis.NewErrorResult(ticker, analysisType, err)
		fillMetadata(result, run, 1)
		return result
	}

	decision := ParseDecision(run.Text)
	valid := false
	for _, d := range allowed {
		if decision == d {
			valid = true
			break
		}
	}
	if !valid {
		decision = analysis.DecisionUnclear
	}

	result := &analysis.Result{
		ID:        uuid.New(),
		Ticker:    ticker,
		Decision:  decision,
		Thesis:    run.Text,
		CreatedAt: time.Now(),
		Metadata:  analysis.Metadata{AnalysisType: analysisType},
	}
	fillMetadata(result, run, 1)
	return result
}

func (a *Analyzer) runDeepDive(ctx context.Context, ticker string) *analysis.Result {
	verified := map[string]float64{}
	if a.roic != nil {
		roic, years, err := a.roic.AverageROIC(ctx, ticker)
		if err != nil {
			a.log.Warnw("Verified ROIC unavailable; gate runs on narrative only",
				"ticker", ticker, "error", err)
		} else {
			verified[VerifiedROICKey] = roic
			a.log.Debugw("Verified ROIC", "ticker", ticker, "roic", roic, "years", years)
		}
	}

	outcome, err := a.deepDive.Run(ctx, ticker, verified, NewCostTracker())
	if err != nil {
		result := analysis.NewErrorResult(ticker, analysis.TypeDeepDive, err)
		if outcome != nil {
			result.Metadata.Iterations = outcome.Iterations
			result.Metadata.ToolCallsMade = outcome.ToolCallsMade
			result.Metadata.TokenUsage = analysis.TokenUsage{
				InputTokens:  outcome.InputTokens,
				OutputTokens: outcome.OutputTokens,
				CostUSD:      outcome.CostUSD,
			}
			result.Metadata.YearsAnalyzed = outcome.YearsAnalyzed
		}
		return result
	}

	return &analysis.Result{
		ID:         uuid.New(),
		Ticker:     ticker,
		Decision:   outcome.Decision,
		Conviction: outcome.Conviction,
		Thesis:     outcome.Thesis,
		CreatedAt:  time.Now(),
		Metadata: analysis.Metadata{
			AnalysisType:  analysis.TypeDeepDive,
			Iterations:    outcome.Iterations,
			ToolCallsMade: outcome.ToolCallsMade,
			YearsAnalyzed: outcome.YearsAnalyzed,
			TokenUsage: analysis.TokenUsage{
				InputTokens:  outcome.InputTokens,
				OutputTokens: outcome.OutputTokens,
				CostUSD:      outcome.CostUSD,
			},
		},
	}
}

func fillMetadata(result *analysis.Result, run *RunResult, years int) {
	if run == nil {
		return
	}
	result.Metadata.Iterations = run.Iterations
	result.Metadata.ToolCallsMade = run.ToolCallsMade
	result.Metadata.YearsAnalyzed = years
	result.Metadata.TokenUsage = analysis.TokenUsage{
		InputTokens:  run.InputTokens,
		OutputTokens: run.OutputTokens,
		CostUSD:      run.CostUSD,
	}
}
