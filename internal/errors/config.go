package errors

import (
	"fmt"
)

// ConfigurationError is raised when configuration is invalid or missing
type ConfigurationError struct {
	*MealCalError
}

// Unwrap exposes the base error so errors.As can classify the chain
func (e *ConfigurationError) Unwrap() error {
	return e.MealCalError
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{
		MealCalError: &MealCalError{
			Message: message,
			Code:    CodeConfiguration,
		},
	}
}

// NewMissingEnvVarError is raised when a required environment variable is
// not set. The variable name is safe to log; its value never is.
func NewMissingEnvVarError(varName, description string) *ConfigurationError {
	return &ConfigurationError{
		MealCalError: &MealCalError{
			Message: fmt.Sprintf("required environment variable %s is not set (%s)", varName, description),
			Code:    CodeConfiguration,
		},
	}
}

// NewConfigFileError is raised when a configuration file cannot be read or parsed
func NewConfigFileError(filePath string, cause error) *ConfigurationError {
	return &ConfigurationError{
		MealCalError: &MealCalError{
			Message: fmt.Sprintf("failed to load configuration file: %s", filePath),
			Cause:   cause,
			Code:    CodeConfiguration,
		},
	}
}
