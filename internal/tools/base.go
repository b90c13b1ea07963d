package tools

import (
	"context"

	"github.com/user/mealcal/internal/llmtypes"
)

// Tool is the interface that all tools must implement
type Tool interface {
	// Name returns the tool name
	Name() string

	// Description returns a description of what the tool does
	Description() string

	// Parameters returns the JSON schema for the tool's parameters
	Parameters() map[string]interface{}

	// Execute runs the tool with the given parameters
	Execute(ctx context.Context, params map[string]interface{}) (string, error)
}

// Registry holds the tools available to the model, keyed by name
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry over the given tools
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if _, seen := r.tools[t.Name()]; !seen {
			r.order = append(r.order, t.Name())
		}
		r.tools[t.Name()] = t
	}
	return r
}

// Get returns the tool with the given name, if registered
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Definitions returns the tool definitions to advertise to the model,
// in registration order.
func (r *Registry) Definitions() []llmtypes.ToolDefinition {
	defs := make([]llmtypes.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, llmtypes.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}
