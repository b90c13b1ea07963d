package estimator

import (
	"context"
	"fmt"

	"github.com/user/mealcal/internal/llmtypes"
	"github.com/user/mealcal/internal/logging"
	"github.com/user/mealcal/internal/tools"
	"github.com/user/mealcal/internal/workerpool"
)

// ToolResult is one tool's output keyed back to the invocation that
// requested it.
type ToolResult struct {
	ID      string
	Name    string
	Content string
}

// Dispatcher executes the tool invocations of one model turn with bounded
// parallelism. Every invocation gets exactly one result, including ones
// naming a tool we do not have.
type Dispatcher struct {
	registry *tools.Registry
	pool     *workerpool.Pool
	logger   *logging.Logger
}

// NewDispatcher creates a dispatcher over the given registry
func NewDispatcher(registry *tools.Registry, maxWorkers int, logger *logging.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		pool:     workerpool.New(maxWorkers),
		logger:   logger.Named("dispatcher"),
	}
}

// Dispatch runs every invocation and returns one result per invocation,
// in invocation order.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []llmtypes.ToolCall) []ToolResult {
	tasks := make([]workerpool.Task, len(calls))
	for i, call := range calls {
		call := call
		tasks[i] = func(ctx context.Context) (string, error) {
			tool, ok := d.registry.Get(call.Name)
			if !ok {
				d.logger.Warn("model requested unsupported tool",
					logging.String("tool", call.Name))
				return fmt.Sprintf("Error: tool '%s' is not supported", call.Name), nil
			}
			return tool.Execute(ctx, call.Arguments)
		}
	}

	outputs := d.pool.Run(ctx, tasks)

	results := make([]ToolResult, len(calls))
	for i, call := range calls {
		content := outputs[i].Value
		if err := outputs[i].Error; err != nil {
			d.logger.Error("tool execution failed",
				logging.String("tool", call.Name),
				logging.Error(err))
			content = fmt.Sprintf("Error: %v", err)
		}
		if content == "" {
			content = "The tool returned no output."
		}
		results[i] = ToolResult{ID: call.ID, Name: call.Name, Content: content}
	}
	return results
}
