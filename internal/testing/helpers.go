package testing

import (
	"context"
	"fmt"

	"github.com/user/mealcal/internal/llmtypes"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	Responses      []llmtypes.CompletionResponse
	CallCount      int
	LastRequest    llmtypes.CompletionRequest
	ShouldError    bool
	ErrorToReturn  error
	RequestHistory []llmtypes.CompletionRequest
}

// NewMockLLMClient creates a mock client with predefined responses, served
// in order. After the list is exhausted the last response repeats.
func NewMockLLMClient(responses ...llmtypes.CompletionResponse) *MockLLMClient {
	return &MockLLMClient{
		Responses:      responses,
		RequestHistory: make([]llmtypes.CompletionRequest, 0),
	}
}

// GenerateCompletion implements llm.Client
func (m *MockLLMClient) GenerateCompletion(ctx context.Context, req llmtypes.CompletionRequest) (llmtypes.CompletionResponse, error) {
	m.LastRequest = req
	m.RequestHistory = append(m.RequestHistory, req)

	if m.ShouldError {
		m.CallCount++
		return llmtypes.CompletionResponse{}, m.ErrorToReturn
	}

	if m.CallCount >= len(m.Responses) {
		if len(m.Responses) > 0 {
			resp := m.Responses[len(m.Responses)-1]
			m.CallCount++
			return resp, nil
		}
		return llmtypes.CompletionResponse{}, fmt.Errorf("no responses configured")
	}

	resp := m.Responses[m.CallCount]
	m.CallCount++
	return resp, nil
}

// Provider implements llm.Client
func (m *MockLLMClient) Provider() string {
	return "mock"
}

// SetError configures the mock to return an error
func (m *MockLLMClient) SetError(err error) {
	m.ShouldError = true
	m.ErrorToReturn = err
}

// TextResponse builds a final-answer completion response
func TextResponse(text string) llmtypes.CompletionResponse {
	return llmtypes.CompletionResponse{
		Content:    text,
		StopReason: llmtypes.StopEndTurn,
	}
}

// ToolUseResponse builds a completion response requesting the given tool calls
func ToolUseResponse(calls ...llmtypes.ToolCall) llmtypes.CompletionResponse {
	return llmtypes.CompletionResponse{
		StopReason: llmtypes.StopToolUse,
		ToolCalls:  calls,
	}
}
