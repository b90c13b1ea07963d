package errors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers: it selects the HTTP status and the
// machine-readable code returned to clients. Payload detail never crosses
// the API boundary; UserMessage is the only client-visible text.
type Code string

const (
	CodeValidation      Code = "validation_error"
	CodeConfiguration   Code = "configuration_error"
	CodeExternalService Code = "external_service_error"
	CodeBudgetExceeded  Code = "conversation_budget_exceeded"
	CodeInternal        Code = "internal_error"
)

// MealCalError is the base error type for all application errors
type MealCalError struct {
	Message string // Internal, loggable message
	Code    Code
	Cause   error // Underlying error (for wrapping)
}

// Error returns the error message with cause if present
func (e *MealCalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *MealCalError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error code to an HTTP response status
func (e *MealCalError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return 400
	default:
		return 500
	}
}

// UserMessage returns the short, generic text safe to expose to clients.
// Internal messages can carry provider detail; this never does.
func (e *MealCalError) UserMessage() string {
	switch e.Code {
	case CodeValidation:
		return e.Message
	case CodeConfiguration:
		return "service is not configured correctly"
	case CodeBudgetExceeded:
		return "the assistant could not complete the estimate in time"
	case CodeExternalService:
		return "an upstream service is unavailable"
	default:
		return "an unexpected error occurred"
	}
}

// New creates a new MealCalError with the given message and code
func New(message string, code Code) *MealCalError {
	return &MealCalError{Message: message, Code: code}
}

// Wrap wraps an existing error with a message and code
func Wrap(cause error, message string, code Code) *MealCalError {
	return &MealCalError{Message: message, Cause: cause, Code: code}
}

// CodeOf extracts the Code from any error in err's chain, defaulting to
// CodeInternal for errors raised outside this package.
func CodeOf(err error) Code {
	var me *MealCalError
	if errors.As(err, &me) {
		return me.Code
	}
	return CodeInternal
}
