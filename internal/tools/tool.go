package tools

import (
	"context"
	"encoding/json"

	"graham/internal/adapters/ai"
)

// Tool is a capability the model can invoke during the reasoning loop.
type Tool interface {
	// Definition describes the tool for the provider's tool-calling API.
	Definition() ai.ToolDefinition

	// Execute runs the tool with validated-or-not model input. Errors are
	// reported through the Result envelope so the loop can feed them back
	// to the model; a non-nil error return means the adapter itself is
	// broken, not that the input was bad.
	Execute(ctx context.Context, input map[string]interface{}) (*Result, error)
}

// Result is the uniform tool execution envelope. Every tool response the
// model sees is one of these, serialized to JSON.
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Ok builds a successful result.
func Ok(data interface{}) *Result {
	return &Result{Success: true, Data: data}
}

// Fail builds a failed result with a model-readable reason.
func Fail(reason string) *Result {
	return &Result{Success: false, Error: reason}
}

// JSON serializes the envelope for the tool_result block. Marshal failure
// degrades to a failure envelope rather than panicking mid-loop.
func (r *Result) JSON() string {
	data, err := json.Marshal(r)
	if err != nil {
		return `{"success":false,"error":"result serialization failed"}`
	}
	return string(data)
}
