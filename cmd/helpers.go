package cmd

import (
	"github.com/user/mealcal/internal/config"
	"github.com/user/mealcal/internal/estimator"
	"github.com/user/mealcal/internal/llm"
	"github.com/user/mealcal/internal/logging"
	"github.com/user/mealcal/internal/nutrition"
	"github.com/user/mealcal/internal/prompts"
	"github.com/user/mealcal/internal/sanitize"
	"github.com/user/mealcal/internal/tools"
)

// loadConfig loads and validates the service configuration
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader().Load(configPathFlag, nil)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogger creates the service logger from the logging configuration.
// The caller is responsible for calling logger.Sync() when done.
func initLogger(cfg config.LoggingConfig, debug bool) (*logging.Logger, error) {
	consoleLevel := cfg.ConsoleLevel
	if debug {
		consoleLevel = "debug"
	}
	return logging.NewLogger(&logging.Config{
		LogDir:       cfg.LogDir,
		FileLevel:    logging.LevelFromString(cfg.FileLevel),
		ConsoleLevel: logging.LevelFromString(consoleLevel),
		EnableCaller: debug,
	})
}

// buildOrchestrator wires the full estimation pipeline from configuration
func buildOrchestrator(cfg *config.Config, logger *logging.Logger) (*estimator.Orchestrator, error) {
	retrySettings := &llm.RetryConfig{
		MaxAttempts:       cfg.Retry.GetMaxAttempts(),
		Multiplier:        cfg.Retry.GetMultiplier(),
		MaxWaitPerAttempt: cfg.Retry.GetMaxWaitPerAttempt(),
		MaxTotalWait:      cfg.Retry.GetMaxTotalWait(),
	}
	llmClient, err := llm.NewClient(cfg.LLM, llm.NewRetryClientWithTimeout(cfg.LLM.GetTimeout(), retrySettings))
	if err != nil {
		return nil, err
	}

	// Nutrition lookups retry on the same policy as chat-service calls
	resolver := nutrition.NewResolver(logger,
		nutrition.NewFatSecretProvider(cfg.FatSecret,
			llm.NewRetryClientWithTimeout(cfg.FatSecret.GetTimeout(), retrySettings), logger),
		nutrition.NewWebSearchProvider(cfg.Search,
			llm.NewRetryClientWithTimeout(cfg.Search.GetTimeout(), retrySettings), logger),
	)
	registry := tools.NewRegistry(tools.NewNutritionSearchTool(resolver))

	promptManager, err := prompts.NewManager(cfg.PromptDir)
	if err != nil {
		return nil, err
	}
	systemPrompt, err := promptManager.Get(prompts.SystemPromptKey)
	if err != nil {
		return nil, err
	}

	return estimator.NewOrchestrator(
		llmClient,
		registry,
		sanitize.NewGateway(),
		cfg.Estimator,
		cfg.LLM,
		systemPrompt,
		logger,
	), nil
}
