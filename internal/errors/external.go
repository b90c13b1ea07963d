package errors

import (
	"fmt"
)

// ExternalServiceError is raised when an outbound call (chat service,
// nutrition provider, token endpoint) fails or returns a non-2xx status.
// Provider failures are absorbed by the resolver; only chat-service
// failures propagate this error to the request handler.
type ExternalServiceError struct {
	*MealCalError
	Service string
}

// Unwrap exposes the base error so errors.As can classify the chain
func (e *ExternalServiceError) Unwrap() error {
	return e.MealCalError
}

// NewExternalServiceError creates a new external service error
func NewExternalServiceError(service string, cause error) *ExternalServiceError {
	return &ExternalServiceError{
		MealCalError: &MealCalError{
			Message: fmt.Sprintf("call to %s failed", service),
			Cause:   cause,
			Code:    CodeExternalService,
		},
		Service: service,
	}
}

// ConversationBudgetError is raised when the tool-use loop hits its turn
// cap or wall-clock budget. Distinct from ExternalServiceError so callers
// can tell a misbehaving model apart from an infrastructure failure.
type ConversationBudgetError struct {
	*MealCalError
	ToolTurns int
}

// Unwrap exposes the base error so errors.As can classify the chain
func (e *ConversationBudgetError) Unwrap() error {
	return e.MealCalError
}

// NewConversationBudgetError creates a new conversation budget error
func NewConversationBudgetError(toolTurns int) *ConversationBudgetError {
	return &ConversationBudgetError{
		MealCalError: &MealCalError{
			Message: fmt.Sprintf("conversation exceeded the tool-turn budget (%d turns)", toolTurns),
			Code:    CodeBudgetExceeded,
		},
		ToolTurns: toolTurns,
	}
}

// NewConversationDeadlineError reports that the overall wall-clock budget
// for one orchestration run elapsed before the model produced a final answer.
func NewConversationDeadlineError(cause error) *ConversationBudgetError {
	return &ConversationBudgetError{
		MealCalError: &MealCalError{
			Message: "conversation exceeded the wall-clock budget",
			Cause:   cause,
			Code:    CodeBudgetExceeded,
		},
	}
}
