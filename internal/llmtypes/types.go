package llmtypes

// Stop reasons reported by chat providers, normalized across backends.
const (
	StopEndTurn = "end_turn"
	StopToolUse = "tool_use"
)

// Message represents a chat message
type Message struct {
	Role      string // "user", "assistant", "tool"
	Content   string
	ToolID    string     // Invocation id the result answers (for role="tool")
	ToolCalls []ToolCall // Tool calls made by assistant (for role="assistant")
}

// ToolCall represents a tool invocation requested by the LLM.
// ID is the provider-assigned invocation id; every ToolCall in a turn
// must be answered by a tool message carrying the same id.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]interface{}
}

// CompletionRequest is a request for LLM completion
type CompletionRequest struct {
	SystemPrompt string
	Messages     []Message
	Tools        []ToolDefinition
	MaxTokens    int
	Temperature  float64
}

// CompletionResponse is the response from LLM
type CompletionResponse struct {
	Content    string
	ToolCalls  []ToolCall
	StopReason string
	Usage      TokenUsage
}

// ToolUseRequested reports whether the provider stopped to request tool
// execution rather than delivering a final answer.
func (r CompletionResponse) ToolUseRequested() bool {
	return r.StopReason == StopToolUse || len(r.ToolCalls) > 0
}

// TokenUsage tracks token usage
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// ToolDefinition defines a tool for the LLM
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}
