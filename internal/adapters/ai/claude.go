package ai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"graham/pkg/errors"
)

// Ensure ClaudeProvider implements ChatProvider
var _ ChatProvider = (*ClaudeProvider)(nil)

// ClaudeProvider implements ChatProvider on the Anthropic API.
type ClaudeProvider struct {
	client  anthropic.Client
	models  []ModelInfo
	limiter *RateLimiter
}

// NewClaudeProvider creates a new Claude provider. limiter may be nil.
func NewClaudeProvider(apiKey string, limiter *RateLimiter) *ClaudeProvider {
	return &ClaudeProvider{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		models:  anthropicModels(),
		limiter: limiter,
	}
}

// Name returns the provider name.
func (p *ClaudeProvider) Name() string {
	return ProviderNameAnthropic.String()
}

// GetModel returns model info by name.
func (p *ClaudeProvider) GetModel(model string) (ModelInfo, error) {
	for _, m := range p.models {
		if strings.EqualFold(m.Name, model) {
			return m, nil
		}
	}
	return ModelInfo{}, errors.Wrapf(errors.ErrNotFound, "claude model %s not found", model)
}

// DefaultModel returns the provider's preferred model.
func (p *ClaudeProvider) DefaultModel() ModelInfo {
	return p.models[0]
}

// Chat sends a chat completion request to the Anthropic API.
func (p *ClaudeProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  convertMessagesToClaude(req.Messages),
	}

	if params.MaxTokens == 0 {
		params.MaxTokens = 4096
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}

	for _, t := range req.Tools {
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: t.Properties,
					Required:   t.Required,
				},
			},
		})
	}

	if req.ThinkingBudget > 0 {
		params.Thinking = anthropic.ThinkingConfigParamUnion{
			OfEnabled: &anthropic.ThinkingConfigEnabledParam{
				BudgetTokens: int64(req.ThinkingBudget),
			},
		}
	} else if req.Temperature > 0 {
		// The API rejects temperature together with extended thinking.
		params.Temperature = anthropic.Float(req.Temperature)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(errors.Mark(errors.ErrProvider, err), "claude API call")
	}

	return convertClaudeResponse(resp), nil
}

// convertMessagesToClaude converts the neutral block union into Anthropic
// message params, preserving block order within each turn.
func convertMessagesToClaude(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Blocks))
		for _, b := range msg.Blocks {
			switch b.Type {
			case BlockText:
				blocks = append(blocks, anthropic.NewTextBlock(b.Text))
			case BlockThinking:
				blocks = append(blocks, anthropic.NewThinkingBlock(b.Signature, b.Text))
			case BlockToolUse:
				blocks = append(blocks, anthropic.NewToolUseBlock(b.ID, b.Input, b.Name))
			case BlockToolResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(b.ToolUseID, b.Content, b.IsError))
			}
		}
		if len(blocks) == 0 {
			continue
		}

		if msg.Role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}

	return out
}

// convertClaudeResponse converts the API response back to the neutral form.
func convertClaudeResponse(resp *anthropic.Message) *ChatResponse {
	out := &ChatResponse{
		ID:    resp.ID,
		Model: string(resp.Model),
		Usage: Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}

	for _, block := range resp.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.Blocks = append(out.Blocks, TextBlock(v.Text))
		case anthropic.ThinkingBlock:
			out.Blocks = append(out.Blocks, ContentBlock{
				Type:      BlockThinking,
				Text:      v.Thinking,
				Signature: v.Signature,
			})
		case anthropic.ToolUseBlock:
			var input map[string]interface{}
			if err := json.Unmarshal(v.Input, &input); err != nil {
				input = map[string]interface{}{}
			}
			out.Blocks = append(out.Blocks, ToolUseBlock(v.ID, v.Name, input))
		}
	}

	switch string(resp.StopReason) {
	case "end_turn", "stop_sequence":
		out.StopReason = StopEndTurn
	case "tool_use":
		out.StopReason = StopToolUse
	case "max_tokens":
		out.StopReason = StopMaxTokens
	default:
		out.StopReason = StopOther
	}

	return out
}
