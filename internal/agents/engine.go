package agents

import (
	"context"
	"time"

	"graham/internal/adapters/ai"
	"graham/internal/metrics"
	"graham/internal/tools"
	"graham/pkg/errors"
	"graham/pkg/logger"
)

// Engine drives the reasoning loop: send the conversation to the model,
// execute any requested tools, feed the results back, repeat until the
// model answers without tools or the iteration ceiling is hit.
//
// The loop is strictly sequential. Every provider and tool call blocks;
// there is no internal concurrency within one run.
type Engine struct {
	provider    ai.ChatProvider
	registry    *tools.Registry
	toolTimeout time.Duration
	log         *logger.Logger
}

// NewEngine creates a reasoning engine.
func NewEngine(provider ai.ChatProvider, registry *tools.Registry, toolTimeout time.Duration) *Engine {
	return &Engine{
		provider:    provider,
		registry:    registry,
		toolTimeout: toolTimeout,
		log:         logger.Get().With("component", "engine"),
	}
}

// RunRequest configures one reasoning run.
type RunRequest struct {
	System          string
	Prompt          string
	Model           ai.ModelInfo
	Tools           []ai.ToolDefinition
	MaxIterations   int
	MaxOutputTokens int
	ThinkingBudget  int

	// Tracker accumulates cost across runs when shared; a run-local
	// tracker is created when nil.
	Tracker *CostTracker

	// Conversation continues an existing exchange when set.
	Conversation *Conversation
}

// RunResult is the outcome of a reasoning run. It is populated even when
// Run returns an error so callers can report iterations and spend for
// failed runs.
type RunResult struct {
	Text          string
	Iterations    int
	ToolCallsMade int
	InputTokens   int
	OutputTokens  int
	CostUSD       float64
	Conversation  *Conversation
}

// Run executes the reasoning loop. Provider failures are returned wrapped
// in ErrProvider and never retried here: transient faults are the rate
// limiter's job, and systematic ones need operator attention. Hitting the
// iteration ceiling returns ErrConvergence, which indicates a prompt or
// tool-definition defect.
func (e *Engine) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	conv := req.Conversation
	if conv == nil {
		conv = NewConversation()
	}
	if req.Prompt != "" {
		conv.AddUserText(req.Prompt)
	}

	tracker := req.Tracker
	if tracker == nil {
		tracker = NewCostTracker()
	}

	thinkingBudget := req.ThinkingBudget
	if thinkingBudget > 0 && !req.Model.SupportsThinking {
		thinkingBudget = 0
	}

	result := &RunResult{Conversation: conv}

	for result.Iterations < req.MaxIterations {
		result.Iterations++

		resp, err := e.provider.Chat(ctx, ai.ChatRequest{
			Model:          req.Model.Name,
			System:         req.System,
			Messages:       conv.Messages(),
			Tools:          req.Tools,
			MaxTokens:      req.MaxOutputTokens,
			ThinkingBudget: thinkingBudget,
		})
		if err != nil {
			metrics.RecordLLMCall(e.provider.Name(), req.Model.Name, false, 0, 0, 0)
			e.log.Errorw("Provider call failed",
				"model", req.Model.Name,
				"iteration", result.Iterations,
				"error", err,
			)
			if !errors.Is(err, errors.ErrProvider) {
				err = errors.Mark(errors.ErrProvider, err)
			}
			return result, err
		}

		cost := tracker.RecordUsage(req.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
		result.InputTokens += resp.Usage.InputTokens
		result.OutputTokens += resp.Usage.OutputTokens
		result.CostUSD += cost
		metrics.RecordLLMCall(e.provider.Name(), req.Model.Name, true, resp.Usage.InputTokens, resp.Usage.OutputTokens, cost)

		conv.AddAssistant(resp.Blocks)

		uses := resp.ToolUses()
		if len(uses) == 0 {
			result.Text = resp.TextContent()
			e.log.Infow("Run converged",
				"iterations", result.Iterations,
				"tool_calls", result.ToolCallsMade,
				"cost_usd", result.CostUSD,
			)
			return result, nil
		}

		// One result block per tool_use block, same order, matched by id.
		resultBlocks := make([]ai.ContentBlock, 0, len(uses))
		for _, use := range uses {
			toolResult := e.executeTool(ctx, use.Name, use.Input)
			resultBlocks = append(resultBlocks, ai.ToolResultBlock(use.ID, toolResult.JSON(), !toolResult.Success))
			result.ToolCallsMade++
			metrics.RecordToolCall(use.Name, toolResult.Success)
		}
		conv.AddToolResults(resultBlocks)
	}

	e.log.Warnw("Run hit iteration ceiling",
		"max_iterations", req.MaxIterations,
		"tool_calls", result.ToolCallsMade,
	)
	return result, errors.Wrapf(errors.ErrConvergence, "after %d iterations", result.Iterations)
}

func (e *Engine) executeTool(ctx context.Context, name string, input map[string]interface{}) *tools.Result {
	if e.toolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.toolTimeout)
		defer cancel()
	}

	start := time.Now()
	res := e.registry.Execute(ctx, name, input)
	e.log.Debugw("Tool executed",
		"tool", name,
		"success", res.Success,
		"duration", time.Since(start),
	)
	return res
}
