package tools

import (
	"context"
	"fmt"
	"sync"

	"graham/internal/adapters/ai"
	"graham/pkg/logger"
)

// Registry stores tools by name for discovery and dispatch.
type Registry struct {
	tools map[string]Tool
	order []string
	mu    sync.RWMutex
}

// NewRegistry constructs an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds or replaces a tool under its definition name.
func (r *Registry) Register(t Tool) {
	name := t.Definition().Name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Get retrieves a tool by name if registered.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns the names of all registered tools in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Definitions returns the tool definitions in registration order, ready to
// attach to a chat request.
func (r *Registry) Definitions() []ai.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ai.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute dispatches one tool call and always returns a Result the model
// can read. Unknown tools and panicking tools become failure envelopes;
// the reasoning loop must survive any single bad call.
func (r *Registry) Execute(ctx context.Context, name string, input map[string]interface{}) (result *Result) {
	log := logger.Get()

	defer func() {
		if rec := recover(); rec != nil {
			log.Errorw("Tool panicked", "tool", name, "panic", rec)
			result = Fail(fmt.Sprintf("tool %s panicked: %v", name, rec))
		}
	}()

	t, ok := r.Get(name)
	if !ok {
		log.Warnw("Unknown tool requested", "tool", name)
		return Fail(fmt.Sprintf("Unknown tool: %s", name))
	}

	res, err := t.Execute(ctx, input)
	if err != nil {
		log.Errorw("Tool execution failed", "tool", name, "error", err)
		return Fail(err.Error())
	}
	return res
}
