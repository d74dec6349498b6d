package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graham/internal/adapters/ai"
)

type fakeTool struct {
	name    string
	execute func(ctx context.Context, input map[string]interface{}) (*Result, error)
}

func (f *fakeTool) Definition() ai.ToolDefinition {
	return ai.ToolDefinition{Name: f.name}
}

func (f *fakeTool) Execute(ctx context.Context, input map[string]interface{}) (*Result, error) {
	return f.execute(ctx, input)
}

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{
		name: "echo",
		execute: func(_ context.Context, input map[string]interface{}) (*Result, error) {
			return Ok(input["value"]), nil
		},
	})

	res := r.Execute(context.Background(), "echo", map[string]interface{}{"value": "hello"})
	require.True(t, res.Success)
	assert.Equal(t, "hello", res.Data)
}

func TestRegistryUnknownToolYieldsErrorResult(t *testing.T) {
	r := NewRegistry()

	res := r.Execute(context.Background(), "nonexistent", nil)
	require.False(t, res.Success)
	assert.Contains(t, res.Error, "Unknown tool: nonexistent")
}

func TestRegistryRecoversFromPanic(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{
		name: "bomb",
		execute: func(_ context.Context, _ map[string]interface{}) (*Result, error) {
			panic("boom")
		},
	})

	res := r.Execute(context.Background(), "bomb", nil)
	require.NotNil(t, res)
	require.False(t, res.Success)
	assert.Contains(t, res.Error, "panicked")
}

func TestRegistryDefinitionsPreserveRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"calculator", "get_financial_data", "fetch_filing", "web_search"} {
		n := name
		r.Register(&fakeTool{name: n, execute: func(_ context.Context, _ map[string]interface{}) (*Result, error) {
			return Ok(nil), nil
		}})
	}

	defs := r.Definitions()
	require.Len(t, defs, 4)
	assert.Equal(t, "calculator", defs[0].Name)
	assert.Equal(t, "web_search", defs[3].Name)
	assert.Equal(t, []string{"calculator", "get_financial_data", "fetch_filing", "web_search"}, r.List())
}

func TestResultJSONDegradesGracefully(t *testing.T) {
	res := Ok(map[string]interface{}{"ok": true})
	assert.Contains(t, res.JSON(), `"success":true`)

	// Channels are not JSON-serializable.
	bad := Ok(make(chan int))
	assert.Contains(t, bad.JSON(), "result serialization failed")
}
