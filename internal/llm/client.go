package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/user/mealcal/internal/llmtypes"
)

// Type aliases so callers only import one package
type Message = llmtypes.Message
type ToolCall = llmtypes.ToolCall
type CompletionRequest = llmtypes.CompletionRequest
type CompletionResponse = llmtypes.CompletionResponse
type TokenUsage = llmtypes.TokenUsage
type ToolDefinition = llmtypes.ToolDefinition

// Client is the interface for chat-service providers
type Client interface {
	// GenerateCompletion sends the full conversation and returns one
	// assistant turn, including any requested tool invocations
	GenerateCompletion(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// Provider returns the provider name
	Provider() string
}

// baseClient provides shared HTTP plumbing for provider clients
type baseClient struct {
	retryClient *RetryClient
}

func newBaseClient(retryClient *RetryClient) *baseClient {
	if retryClient == nil {
		retryClient = NewRetryClient(nil)
	}
	return &baseClient{retryClient: retryClient}
}

// doJSONRequest marshals payload, issues the request through the retry
// client and returns the response. The caller owns resp.Body.
func (b *baseClient) doJSONRequest(ctx context.Context, method, url string, headers map[string]string, payload interface{}) (*http.Response, error) {
	var body *bytes.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	var httpReq *http.Request
	var err error
	if body != nil {
		httpReq, err = http.NewRequestWithContext(ctx, method, url, body)
	} else {
		httpReq, err = http.NewRequestWithContext(ctx, method, url, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := b.retryClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}
