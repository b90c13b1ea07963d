package estimator

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/user/mealcal/internal/config"
	"github.com/user/mealcal/internal/errors"
	"github.com/user/mealcal/internal/llm"
	"github.com/user/mealcal/internal/llmtypes"
	"github.com/user/mealcal/internal/logging"
	"github.com/user/mealcal/internal/sanitize"
	"github.com/user/mealcal/internal/tools"
)

// Turn is one prior message of the client-supplied conversation history
type Turn struct {
	Role    string
	Content string
}

// Orchestrator drives the tool-use conversation for one estimation request.
// It owns no per-request state; each Estimate call is independent.
type Orchestrator struct {
	llmClient    llm.Client
	registry     *tools.Registry
	dispatcher   *Dispatcher
	gateway      *sanitize.Gateway
	logger       *logging.Logger
	systemPrompt string
	maxToolTurns int
	wallBudget   time.Duration
	maxTokens    int
	temperature  float64
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	llmClient llm.Client,
	registry *tools.Registry,
	gateway *sanitize.Gateway,
	cfg config.EstimatorConfig,
	llmCfg config.LLMConfig,
	systemPrompt string,
	logger *logging.Logger,
) *Orchestrator {
	return &Orchestrator{
		llmClient:    llmClient,
		registry:     registry,
		dispatcher:   NewDispatcher(registry, cfg.GetMaxToolWorkers(), logger),
		gateway:      gateway,
		logger:       logger.Named("estimator"),
		systemPrompt: systemPrompt,
		maxToolTurns: cfg.GetMaxToolTurns(),
		wallBudget:   cfg.GetWallBudget(),
		maxTokens:    llmCfg.GetMaxTokens(),
		temperature:  llmCfg.Temperature,
	}
}

// Estimate runs the conversation to completion and extracts the numeric
// fields from the model's final answer.
func (o *Orchestrator) Estimate(ctx context.Context, history []Turn, message string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, o.wallBudget)
	defer cancel()

	inAudit := o.gateway.Audit(message)
	o.logger.Info("estimation started",
		logging.String("message_hash", inAudit.Hash),
		logging.Bool("contained_phi", inAudit.ContainedPHI),
		logging.Int("history_turns", len(history)))

	messages := make([]llmtypes.Message, 0, len(history)+1)
	for _, turn := range history {
		role := turn.Role
		if role != "assistant" {
			role = "user"
		}
		messages = append(messages, llmtypes.Message{
			Role:    role,
			Content: o.gateway.Outbound(turn.Content),
		})
	}
	messages = append(messages, llmtypes.Message{
		Role:    "user",
		Content: o.gateway.Outbound(message),
	})

	toolTurns := 0
	for {
		resp, err := o.llmClient.GenerateCompletion(ctx, llmtypes.CompletionRequest{
			SystemPrompt: o.systemPrompt,
			Messages:     messages,
			Tools:        o.registry.Definitions(),
			MaxTokens:    o.maxTokens,
			Temperature:  o.temperature,
		})
		if err != nil {
			if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
				return Result{}, errors.NewConversationDeadlineError(err)
			}
			return Result{}, errors.NewExternalServiceError(o.llmClient.Provider(), err)
		}

		o.logger.Debug("model turn completed",
			logging.String("stop_reason", resp.StopReason),
			logging.Int("tool_calls", len(resp.ToolCalls)),
			logging.Int("input_tokens", resp.Usage.InputTokens),
			logging.Int("output_tokens", resp.Usage.OutputTokens))

		if !resp.ToolUseRequested() {
			return o.finish(resp.Content), nil
		}

		toolTurns++
		if toolTurns > o.maxToolTurns {
			o.logger.Warn("tool-turn budget exhausted",
				logging.Int("max_tool_turns", o.maxToolTurns))
			return Result{}, errors.NewConversationBudgetError(o.maxToolTurns)
		}

		messages = append(messages, llmtypes.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, result := range o.dispatcher.Dispatch(ctx, resp.ToolCalls) {
			messages = append(messages, llmtypes.Message{
				Role:    "tool",
				Content: result.Content,
				ToolID:  result.ID,
			})
		}
	}
}

// finish audits the raw model text, then sanitizes it and extracts the
// structured fields. The audit must see the text as it crossed the
// boundary, before any scrubbing.
func (o *Orchestrator) finish(text string) Result {
	outAudit := o.gateway.Audit(text)
	clean := strings.TrimSpace(o.gateway.Inbound(text))
	o.logger.Info("estimation finished",
		logging.String("response_hash", outAudit.Hash),
		logging.Bool("contained_phi", outAudit.ContainedPHI))
	return Extract(clean)
}
