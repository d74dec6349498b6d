package agents

import (
	"encoding/json"

	"graham/internal/adapters/ai"
)

// Conversation accumulates the alternating user/assistant turns of one
// reasoning run. Tool results always land in a single user turn directly
// after the assistant turn that requested them; providers reject any other
// interleaving.
type Conversation struct {
	messages        []ai.Message
	estimatedTokens int
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{
		messages: make([]ai.Message, 0, 16),
	}
}

// AddUserText appends a plain-text user turn.
func (c *Conversation) AddUserText(text string) {
	c.messages = append(c.messages, ai.Message{
		Role:   ai.RoleUser,
		Blocks: []ai.ContentBlock{ai.TextBlock(text)},
	})
	c.estimatedTokens += estimateTokens(text)
}

// AddAssistant appends the model's response blocks verbatim, thinking
// blocks included so their signatures round-trip on the next call.
func (c *Conversation) AddAssistant(blocks []ai.ContentBlock) {
	c.messages = append(c.messages, ai.Message{
		Role:   ai.RoleAssistant,
		Blocks: blocks,
	})
	c.estimatedTokens += estimateBlockTokens(blocks)
}

// AddToolResults appends one user turn holding every tool result of the
// iteration, in request order.
func (c *Conversation) AddToolResults(blocks []ai.ContentBlock) {
	c.messages = append(c.messages, ai.Message{
		Role:   ai.RoleUser,
		Blocks: blocks,
	})
	c.estimatedTokens += estimateBlockTokens(blocks)
}

// Messages returns the conversation turns in order.
func (c *Conversation) Messages() []ai.Message {
	return c.messages
}

// EstimatedTokens returns the rough running token estimate. Providers
// report exact usage per call; this is only for pre-flight sizing.
func (c *Conversation) EstimatedTokens() int {
	return c.estimatedTokens
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// estimateTokens gives a rough token count. Rule of thumb: ~4 characters
// per token for English text.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(text) / 4
}

func estimateBlockTokens(blocks []ai.ContentBlock) int {
	total := 0
	for _, b := range blocks {
		total += estimateTokens(b.Text)
		total += estimateTokens(b.Content)
		if len(b.Input) > 0 {
			if data, err := json.Marshal(b.Input); err == nil {
				total += len(data) / 4
			}
		}
	}
	return total
}
