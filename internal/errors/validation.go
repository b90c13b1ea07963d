package errors

import (
	"fmt"
)

// ValidationError is raised when an inbound request is missing or malformed
type ValidationError struct {
	*MealCalError
}

// Unwrap exposes the base error so errors.As can classify the chain
func (e *ValidationError) Unwrap() error {
	return e.MealCalError
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		MealCalError: &MealCalError{
			Message: message,
			Code:    CodeValidation,
		},
	}
}

// NewMissingFieldError reports a required request field that was not supplied
func NewMissingFieldError(field string) *ValidationError {
	return &ValidationError{
		MealCalError: &MealCalError{
			Message: fmt.Sprintf("missing required field: %s", field),
			Code:    CodeValidation,
		},
	}
}
