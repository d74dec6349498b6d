package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graham/pkg/errors"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Chat(_ context.Context, _ ChatRequest) (*ChatResponse, error) {
	return &ChatResponse{StopReason: StopEndTurn}, nil
}

func (s *stubProvider) GetModel(model string) (ModelInfo, error) {
	return ModelInfo{Name: model}, nil
}

func (s *stubProvider) DefaultModel() ModelInfo {
	return ModelInfo{Name: "stub-model"}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()

	err := r.Register(ProviderNameAnthropic, &stubProvider{name: "anthropic"})
	require.NoError(t, err)

	got, err := r.Get(ProviderNameAnthropic)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", got.Name())

	_, err = r.Get(ProviderNameOpenAI)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(ProviderNameAnthropic, &stubProvider{name: "a"}))
	err := r.Register(ProviderNameAnthropic, &stubProvider{name: "b"})
	assert.True(t, errors.Is(err, errors.ErrAlreadyExists))
}

func TestRegistryRejectsUnknownName(t *testing.T) {
	r := NewRegistry()
	err := r.Register(ProviderName("bogus"), &stubProvider{name: "x"})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestRegistryDefaultSelection(t *testing.T) {
	r := NewRegistry()

	_, err := r.Default()
	assert.Error(t, err)

	require.NoError(t, r.Register(ProviderNameAnthropic, &stubProvider{name: "anthropic"}))
	require.NoError(t, r.Register(ProviderNameOpenAI, &stubProvider{name: "openai"}))

	got, err := r.Default()
	require.NoError(t, err)
	assert.Equal(t, "anthropic", got.Name(), "first registration wins by default")

	require.NoError(t, r.SetDefault(ProviderNameOpenAI))
	got, err = r.Default()
	require.NoError(t, err)
	assert.Equal(t, "openai", got.Name())

	err = r.SetDefault(ProviderName("bogus"))
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestChatResponseAccessors(t *testing.T) {
	resp := &ChatResponse{
		Blocks: []ContentBlock{
			{Type: BlockThinking, Text: "considering"},
			TextBlock("first"),
			ToolUseBlock("tu_1", "calculator", map[string]interface{}{"operation": "roic"}),
			TextBlock("second"),
		},
	}

	assert.Equal(t, "first\nsecond", resp.TextContent())

	uses := resp.ToolUses()
	require.Len(t, uses, 1)
	assert.Equal(t, "tu_1", uses[0].ID)
	assert.Equal(t, "calculator", uses[0].Name)
}
