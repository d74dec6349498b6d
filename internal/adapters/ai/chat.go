package ai

import "context"

// ChatProvider is the contract the reasoning loop consumes. Implementations
// translate the neutral block-union conversation into provider wire formats.
type ChatProvider interface {
	Name() string

	// Chat sends one completion request with tool calling support.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// GetModel returns metadata for a specific model.
	GetModel(model string) (ModelInfo, error)

	// DefaultModel returns the provider's preferred model.
	DefaultModel() ModelInfo
}

// ModelInfo describes the capabilities and pricing of a model.
type ModelInfo struct {
	Name             string  // Provider-specific model identifier
	Family           string  // Family/category name (e.g. "claude-sonnet")
	MaxContextTokens int     // Maximum context length
	InputCostPer1K   float64 // USD per 1K input tokens
	OutputCostPer1K  float64 // USD per 1K output tokens
	SupportsTools    bool
	SupportsThinking bool // Extended reasoning budget support
}

// MessageRole defines the role of a message sender.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// BlockType tags the content block union.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockThinking   BlockType = "thinking"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ContentBlock is a type-tagged union of the block kinds a conversation
// carries. Which fields are meaningful depends on Type; the loop matches
// exhaustively so unknown kinds are never silently dropped.
type ContentBlock struct {
	Type BlockType `json:"type"`

	// text / thinking
	Text      string `json:"text,omitempty"`
	Signature string `json:"signature,omitempty"` // provider-opaque, round-tripped for thinking blocks

	// tool_use
	ID    string                 `json:"id,omitempty"`
	Name  string                 `json:"name,omitempty"`
	Input map[string]interface{} `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ToolUseBlock builds a tool invocation request block.
func ToolUseBlock(id, name string, input map[string]interface{}) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ID: id, Name: name, Input: input}
}

// ToolResultBlock builds a tool result block answering the given tool_use id.
func ToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: toolUseID, Content: content, IsError: isError}
}

// Message represents a single conversation turn.
type Message struct {
	Role   MessageRole    `json:"role"`
	Blocks []ContentBlock `json:"blocks"`
}

// ToolDefinition describes a tool the model can call.
type ToolDefinition struct {
	Name        string
	Description string
	Properties  map[string]interface{} // JSON-schema property map
	Required    []string
}

// StopReason indicates why the model stopped generating.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
	StopOther     StopReason = "other"
)

// Usage tracks token consumption for one provider call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ChatRequest represents a chat completion request.
type ChatRequest struct {
	Model     string
	System    string
	Messages  []Message
	Tools     []ToolDefinition
	MaxTokens int
	// ThinkingBudget enables extended reasoning with the given token
	// budget when the provider supports it; zero disables.
	ThinkingBudget int
	Temperature    float64
}

// ChatResponse represents the response from a chat completion.
type ChatResponse struct {
	ID         string
	Model      string
	Blocks     []ContentBlock
	StopReason StopReason
	Usage      Usage
}

// TextContent concatenates the text blocks of a response in order.
func (r *ChatResponse) TextContent() string {
	out := ""
	for _, b := range r.Blocks {
		if b.Type == BlockText {
			if out != "" {
				out += "\n"
			}
			out += b.Text
		}
	}
	return out
}

// ToolUses returns the tool_use blocks of a response in order.
func (r *ChatResponse) ToolUses() []ContentBlock {
	var uses []ContentBlock
	for _, b := range r.Blocks {
		if b.Type == BlockToolUse {
			uses = append(uses, b)
		}
	}
	return uses
}
