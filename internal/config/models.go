package config

import (
	"time"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // Seconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // Seconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // Seconds
}

// LLMConfig holds chat-service provider configuration
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"` // anthropic, openai
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"` // Optional, for compatible APIs and tests
	Timeout     int     `mapstructure:"timeout"`  // Seconds, per chat-service call
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// FatSecretConfig holds the structured nutrition provider configuration.
// The provider is skipped entirely when ClientID or ClientSecret is empty.
type FatSecretConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	TokenURL     string `mapstructure:"token_url"`
	APIURL       string `mapstructure:"api_url"`
	Timeout      int    `mapstructure:"timeout"` // Seconds
	MaxResults   int    `mapstructure:"max_results"`
}

// SearchConfig holds the keyless web-search provider configuration
type SearchConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // Seconds
}

// EstimatorConfig bounds the conversation orchestration loop
type EstimatorConfig struct {
	MaxToolTurns   int `mapstructure:"max_tool_turns"`
	WallBudget     int `mapstructure:"wall_budget"` // Seconds, whole-run cap
	MaxToolWorkers int `mapstructure:"max_tool_workers"`
}

// RetryConfig holds HTTP retry configuration
type RetryConfig struct {
	MaxAttempts       int `mapstructure:"max_attempts"`
	Multiplier        int `mapstructure:"multiplier"`
	MaxWaitPerAttempt int `mapstructure:"max_wait_per_attempt"` // Seconds
	MaxTotalWait      int `mapstructure:"max_total_wait"`       // Seconds
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	LogDir       string `mapstructure:"log_dir"`
	FileLevel    string `mapstructure:"file_level"`    // debug, info, warn, error
	ConsoleLevel string `mapstructure:"console_level"` // debug, info, warn, error
}

// Config is the top-level service configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	FatSecret FatSecretConfig `mapstructure:"fatsecret"`
	Search    SearchConfig    `mapstructure:"search"`
	Estimator EstimatorConfig `mapstructure:"estimator"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	PromptDir string          `mapstructure:"prompt_dir"`
}

// GetTimeout returns the chat-service timeout as a time.Duration
func (c *LLMConfig) GetTimeout() time.Duration {
	if c.Timeout == 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// GetMaxTokens returns the max tokens with a default
func (c *LLMConfig) GetMaxTokens() int {
	if c.MaxTokens == 0 {
		return 2048
	}
	return c.MaxTokens
}

// Configured reports whether the structured provider has usable credentials
func (c *FatSecretConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// GetTimeout returns the provider timeout as a time.Duration
func (c *FatSecretConfig) GetTimeout() time.Duration {
	if c.Timeout == 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// GetMaxResults returns the match cap with a default
func (c *FatSecretConfig) GetMaxResults() int {
	if c.MaxResults == 0 {
		return 5
	}
	return c.MaxResults
}

// GetTimeout returns the search timeout as a time.Duration
func (c *SearchConfig) GetTimeout() time.Duration {
	if c.Timeout == 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// GetMaxToolTurns returns the tool-turn cap with a default
func (c *EstimatorConfig) GetMaxToolTurns() int {
	if c.MaxToolTurns == 0 {
		return 6
	}
	return c.MaxToolTurns
}

// GetWallBudget returns the whole-run wall-clock budget
func (c *EstimatorConfig) GetWallBudget() time.Duration {
	if c.WallBudget == 0 {
		return 90 * time.Second
	}
	return time.Duration(c.WallBudget) * time.Second
}

// GetMaxToolWorkers returns the tool dispatch parallelism bound
func (c *EstimatorConfig) GetMaxToolWorkers() int {
	if c.MaxToolWorkers == 0 {
		return 4
	}
	return c.MaxToolWorkers
}

// GetMaxAttempts returns the retry attempt cap with a default
func (c *RetryConfig) GetMaxAttempts() int {
	if c.MaxAttempts == 0 {
		return 3
	}
	return c.MaxAttempts
}

// GetMultiplier returns the backoff multiplier with a default
func (c *RetryConfig) GetMultiplier() int {
	if c.Multiplier == 0 {
		return 1
	}
	return c.Multiplier
}

// GetMaxWaitPerAttempt returns the per-attempt wait cap
func (c *RetryConfig) GetMaxWaitPerAttempt() time.Duration {
	if c.MaxWaitPerAttempt == 0 {
		return 20 * time.Second
	}
	return time.Duration(c.MaxWaitPerAttempt) * time.Second
}

// GetMaxTotalWait returns the whole-request wait cap
func (c *RetryConfig) GetMaxTotalWait() time.Duration {
	if c.MaxTotalWait == 0 {
		return 60 * time.Second
	}
	return time.Duration(c.MaxTotalWait) * time.Second
}

// GetPort returns the listen port with a default
func (c *ServerConfig) GetPort() int {
	if c.Port == 0 {
		return 8080
	}
	return c.Port
}

// GetReadTimeout returns the whole-request read timeout
func (c *ServerConfig) GetReadTimeout() time.Duration {
	if c.ReadTimeout == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the response write timeout. The default leaves
// room for the estimation wall budget.
func (c *ServerConfig) GetWriteTimeout() time.Duration {
	if c.WriteTimeout == 0 {
		return 120 * time.Second
	}
	return time.Duration(c.WriteTimeout) * time.Second
}

// GetShutdownTimeout returns the graceful shutdown grace period
func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	if c.ShutdownTimeout == 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ShutdownTimeout) * time.Second
}
