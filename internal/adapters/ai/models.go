package ai

// ProviderName represents an AI provider identifier
type ProviderName string

const (
	ProviderNameAnthropic ProviderName = "anthropic"
	ProviderNameOpenAI    ProviderName = "openai"
)

// String returns the string representation of the provider name
func (p ProviderName) String() string {
	return string(p)
}

// IsValid checks if the provider name is supported
func (p ProviderName) IsValid() bool {
	switch p {
	case ProviderNameAnthropic, ProviderNameOpenAI:
		return true
	default:
		return false
	}
}

func anthropicModels() []ModelInfo {
	return []ModelInfo{
		{
			Name:             "claude-sonnet-4-5-20250929",
			Family:           "claude-sonnet",
			MaxContextTokens: 200000,
			InputCostPer1K:   0.003,
			OutputCostPer1K:  0.015,
			SupportsTools:    true,
			SupportsThinking: true,
		},
		{
			Name:             "claude-haiku-4-5-20251001",
			Family:           "claude-haiku",
			MaxContextTokens: 200000,
			InputCostPer1K:   0.001,
			OutputCostPer1K:  0.005,
			SupportsTools:    true,
			SupportsThinking: true,
		},
		{
			Name:             "claude-opus-4-1-20250805",
			Family:           "claude-opus",
			MaxContextTokens: 200000,
			InputCostPer1K:   0.015,
			OutputCostPer1K:  0.075,
			SupportsTools:    true,
			SupportsThinking: true,
		},
	}
}

func openaiModels() []ModelInfo {
	return []ModelInfo{
		{
			Name:             "gpt-5.1-2025-11-13",
			Family:           "gpt-5",
			MaxContextTokens: 272000,
			InputCostPer1K:   0.00125,
			OutputCostPer1K:  0.01,
			SupportsTools:    true,
			SupportsThinking: false,
		},
		{
			Name:             "gpt-4.1-2025-04-14",
			Family:           "gpt-4.1",
			MaxContextTokens: 1000000,
			InputCostPer1K:   0.002,
			OutputCostPer1K:  0.008,
			SupportsTools:    true,
			SupportsThinking: false,
		},
	}
}
