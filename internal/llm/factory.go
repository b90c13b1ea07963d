package llm

import (
	"fmt"

	"github.com/user/mealcal/internal/config"
)

// NewClient creates a chat-service client for the configured provider
func NewClient(cfg config.LLMConfig, retryClient *RetryClient) (Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicClient(cfg, retryClient), nil
	case "openai":
		return NewOpenAIClient(cfg, retryClient), nil
	default:
		return nil, fmt.Errorf("unsupported chat provider: %s (supported: anthropic, openai)", cfg.Provider)
	}
}
