package ai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"graham/pkg/errors"
)

// Ensure OpenAIProvider implements ChatProvider
var _ ChatProvider = (*OpenAIProvider)(nil)

// OpenAIProvider implements ChatProvider on the OpenAI chat completions API.
// ThinkingBudget is ignored: the API has no client-steerable reasoning budget
// on these models, so requests degrade to plain completions.
type OpenAIProvider struct {
	client  openai.Client
	models  []ModelInfo
	limiter *RateLimiter
}

// NewOpenAIProvider creates a new OpenAI provider. limiter may be nil.
func NewOpenAIProvider(apiKey string, limiter *RateLimiter) *OpenAIProvider {
	return &OpenAIProvider{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		models:  openaiModels(),
		limiter: limiter,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return ProviderNameOpenAI.String()
}

// GetModel returns model info by name.
func (p *OpenAIProvider) GetModel(model string) (ModelInfo, error) {
	for _, m := range p.models {
		if strings.EqualFold(m.Name, model) {
			return m, nil
		}
	}
	return ModelInfo{}, errors.Wrapf(errors.ErrNotFound, "openai model %s not found", model)
}

// DefaultModel returns the provider's preferred model.
func (p *OpenAIProvider) DefaultModel() ModelInfo {
	return p.models[0]
}

// Chat sends a chat completion request to the OpenAI API.
func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: convertMessagesToOpenAI(req.System, req.Messages),
	}

	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	for _, t := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters: shared.FunctionParameters{
				"type":       "object",
				"properties": t.Properties,
				"required":   t.Required,
			},
		}))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(errors.Mark(errors.ErrProvider, err), "openai API call")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.Wrap(errors.ErrProvider, "openai returned no choices")
	}

	return convertOpenAIResponse(resp), nil
}

// convertMessagesToOpenAI flattens the block-union conversation into the
// OpenAI message list. Tool results become individual tool-role messages;
// thinking blocks are dropped since the API does not accept them.
func convertMessagesToOpenAI(system string, messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)

	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}

	for _, msg := range messages {
		if msg.Role == RoleAssistant {
			out = append(out, convertAssistantTurn(msg))
			continue
		}

		for _, b := range msg.Blocks {
			switch b.Type {
			case BlockText:
				out = append(out, openai.UserMessage(b.Text))
			case BlockToolResult:
				content := b.Content
				if b.IsError {
					content = "ERROR: " + content
				}
				out = append(out, openai.ToolMessage(content, b.ToolUseID))
			}
		}
	}

	return out
}

func convertAssistantTurn(msg Message) openai.ChatCompletionMessageParamUnion {
	asst := openai.ChatCompletionAssistantMessageParam{}

	var text string
	for _, b := range msg.Blocks {
		switch b.Type {
		case BlockText:
			if text != "" {
				text += "\n"
			}
			text += b.Text
		case BlockToolUse:
			args, err := json.Marshal(b.Input)
			if err != nil {
				args = []byte("{}")
			}
			asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: b.ID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      b.Name,
						Arguments: string(args),
					},
				},
			})
		}
	}

	if text != "" {
		asst.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(text),
		}
	}

	return openai.ChatCompletionMessageParamUnion{OfAssistant: &asst}
}

// convertOpenAIResponse converts the API response back to the neutral form.
func convertOpenAIResponse(resp *openai.ChatCompletion) *ChatResponse {
	choice := resp.Choices[0]

	out := &ChatResponse{
		ID:    resp.ID,
		Model: resp.Model,
		Usage: Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}

	if choice.Message.Content != "" {
		out.Blocks = append(out.Blocks, TextBlock(choice.Message.Content))
	}

	for _, tc := range choice.Message.ToolCalls {
		var input map[string]interface{}
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
			input = map[string]interface{}{}
		}
		out.Blocks = append(out.Blocks, ToolUseBlock(tc.ID, tc.Function.Name, input))
	}

	switch choice.FinishReason {
	case "stop":
		out.StopReason = StopEndTurn
	case "tool_calls", "function_call":
		out.StopReason = StopToolUse
	case "length":
		out.StopReason = StopMaxTokens
	default:
		out.StopReason = StopOther
	}

	return out
}
