package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/user/mealcal/internal/errors"
)

// Loader handles loading configuration from multiple sources
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
// Precedence: CLI overrides > config file > environment > defaults.
func NewLoader() *Loader {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvPrefix("MEALCAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return &Loader{v: v}
}

// Load reads the optional config file and decodes the merged settings
func (l *Loader) Load(configPath string, cliOverrides map[string]interface{}) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			l.v.SetConfigFile(configPath)
			if err := l.v.ReadInConfig(); err != nil {
				return nil, errors.NewConfigFileError(configPath, err)
			}
		}
	}

	for key, value := range cliOverrides {
		if value != nil {
			l.v.Set(key, value)
		}
	}

	cfg := &Config{}
	decoderConfig := &mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           cfg,
		TagName:          "mapstructure",
		Squash:           true,
	}

	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create config decoder: %w", err)
	}

	if err := decoder.Decode(l.v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides fills credential and endpoint fields from flat
// environment variables. Secrets are only ever taken from the environment
// or the config file, never from CLI flags.
func applyEnvOverrides(cfg *Config) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = GetEnvVarOrDefault("MEALCAL_LLM_PROVIDER", "anthropic")
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = GetEnvVarOrDefault("MEALCAL_LLM_MODEL", "claude-sonnet-4-20250514")
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("MEALCAL_LLM_API_KEY")
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = os.Getenv("MEALCAL_LLM_BASE_URL")
	}
	if cfg.FatSecret.ClientID == "" {
		cfg.FatSecret.ClientID = os.Getenv("MEALCAL_FATSECRET_CLIENT_ID")
	}
	if cfg.FatSecret.ClientSecret == "" {
		cfg.FatSecret.ClientSecret = os.Getenv("MEALCAL_FATSECRET_CLIENT_SECRET")
	}
	if cfg.Server.Port == 0 {
		if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
			cfg.Server.Port = port
		}
	}
}

// Validate checks that the configuration is sufficient to serve requests
func (cfg *Config) Validate() error {
	if cfg.LLM.APIKey == "" {
		return errors.NewMissingEnvVarError("MEALCAL_LLM_API_KEY", "chat service credential")
	}
	switch cfg.LLM.Provider {
	case "anthropic", "openai":
	default:
		return errors.NewConfigurationError(fmt.Sprintf("unsupported llm provider: %s", cfg.LLM.Provider))
	}
	return nil
}

// GetEnvVar gets an environment variable, returning an error if not set
func GetEnvVar(name, description string) (string, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", errors.NewMissingEnvVarError(name, description)
	}
	return value, nil
}

// GetEnvVarOrDefault gets an environment variable with a default value
func GetEnvVarOrDefault(name, defaultValue string) string {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue
	}
	return value
}
