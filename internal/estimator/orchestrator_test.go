package estimator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/user/mealcal/internal/config"
	"github.com/user/mealcal/internal/errors"
	"github.com/user/mealcal/internal/llmtypes"
	"github.com/user/mealcal/internal/logging"
	"github.com/user/mealcal/internal/sanitize"
	mealtesting "github.com/user/mealcal/internal/testing"
	"github.com/user/mealcal/internal/tools"
)

// stubTool records queries and returns canned nutrition text
type stubTool struct {
	name    string
	result  string
	queries []string
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub" }

func (s *stubTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{"type": "string"},
		},
		"required": []string{"query"},
	}
}

func (s *stubTool) Execute(ctx context.Context, params map[string]interface{}) (string, error) {
	query, _ := params["query"].(string)
	s.queries = append(s.queries, query)
	return s.result, nil
}

func newTestOrchestrator(client *mealtesting.MockLLMClient, tool tools.Tool, cfg config.EstimatorConfig) *Orchestrator {
	registry := tools.NewRegistry(tool)
	return NewOrchestrator(
		client,
		registry,
		sanitize.NewGateway(),
		cfg,
		config.LLMConfig{},
		"You estimate calories.",
		logging.NewNopLogger(),
	)
}

func TestEstimateDirectAnswer(t *testing.T) {
	client := mealtesting.NewMockLLMClient(
		mealtesting.TextResponse("A banana is **Calories: 105** | **Carbs: 27g** | **Fat: 0g** | **Protein: 1g**"),
	)
	o := newTestOrchestrator(client, &stubTool{name: "nutrition_search"}, config.EstimatorConfig{})

	result, err := o.Estimate(context.Background(), nil, "I ate a banana")
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if !reflect.DeepEqual(result.Calories, []int{105}) {
		t.Errorf("Expected calories [105], got %v", result.Calories)
	}
	if client.CallCount != 1 {
		t.Errorf("Expected a single model call, got %d", client.CallCount)
	}
	if client.LastRequest.SystemPrompt != "You estimate calories." {
		t.Errorf("System prompt not forwarded")
	}
	if len(client.LastRequest.Tools) != 1 || client.LastRequest.Tools[0].Name != "nutrition_search" {
		t.Errorf("Tool schema not advertised: %+v", client.LastRequest.Tools)
	}
}

func TestEstimateToolUseRoundTrip(t *testing.T) {
	tool := &stubTool{
		name:   "nutrition_search",
		result: "Coffee-mate: Calories: 35 kcal per 1 tablespoon",
	}
	client := mealtesting.NewMockLLMClient(
		mealtesting.ToolUseResponse(llmtypes.ToolCall{
			ID:        "toolu_1",
			Name:      "nutrition_search",
			Arguments: map[string]interface{}{"query": "Coffee-mate"},
		}),
		mealtesting.TextResponse("Two tablespoons come to **Calories: 70** | **Carbs: 10g** | **Fat: 3g** | **Protein: 0g**"),
	)
	o := newTestOrchestrator(client, tool, config.EstimatorConfig{})

	result, err := o.Estimate(context.Background(), nil, "I had 2 tablespoons of Coffee-mate")
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	if !reflect.DeepEqual(result.Calories, []int{70}) {
		t.Errorf("Expected scaled calories [70], got %v", result.Calories)
	}
	if !reflect.DeepEqual(tool.queries, []string{"Coffee-mate"}) {
		t.Errorf("Expected one tool query, got %v", tool.queries)
	}

	// The second request must carry the assistant turn and the tool result
	second := client.RequestHistory[1]
	var toolMsg *llmtypes.Message
	for i := range second.Messages {
		if second.Messages[i].Role == "tool" {
			toolMsg = &second.Messages[i]
		}
	}
	if toolMsg == nil {
		t.Fatalf("No tool result in the follow-up request: %+v", second.Messages)
	}
	if toolMsg.ToolID != "toolu_1" {
		t.Errorf("Tool result keyed to %q, want toolu_1", toolMsg.ToolID)
	}
	if !strings.Contains(toolMsg.Content, "35 kcal") {
		t.Errorf("Tool output not forwarded: %q", toolMsg.Content)
	}
}

func TestEstimateEveryInvocationGetsAResult(t *testing.T) {
	tool := &stubTool{name: "nutrition_search", result: "some data"}
	client := mealtesting.NewMockLLMClient(
		mealtesting.ToolUseResponse(
			llmtypes.ToolCall{ID: "toolu_1", Name: "nutrition_search", Arguments: map[string]interface{}{"query": "rice"}},
			llmtypes.ToolCall{ID: "toolu_2", Name: "delete_files", Arguments: map[string]interface{}{}},
			llmtypes.ToolCall{ID: "toolu_3", Name: "nutrition_search", Arguments: map[string]interface{}{"query": "beans"}},
		),
		mealtesting.TextResponse("**Calories: 500**"),
	)
	o := newTestOrchestrator(client, tool, config.EstimatorConfig{})

	if _, err := o.Estimate(context.Background(), nil, "rice and beans"); err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	second := client.RequestHistory[1]
	results := make(map[string]string)
	for _, msg := range second.Messages {
		if msg.Role == "tool" {
			results[msg.ToolID] = msg.Content
		}
	}

	for _, id := range []string{"toolu_1", "toolu_2", "toolu_3"} {
		if _, ok := results[id]; !ok {
			t.Errorf("Invocation %s got no result", id)
		}
	}
	if !strings.Contains(results["toolu_2"], "not supported") {
		t.Errorf("Unsupported tool should get an explicit result, got %q", results["toolu_2"])
	}
}

func TestEstimateTerminatesOnTurnBudget(t *testing.T) {
	tool := &stubTool{name: "nutrition_search", result: "data"}
	client := mealtesting.NewMockLLMClient(
		mealtesting.ToolUseResponse(llmtypes.ToolCall{
			ID:        "toolu_loop",
			Name:      "nutrition_search",
			Arguments: map[string]interface{}{"query": "more"},
		}),
	)
	o := newTestOrchestrator(client, tool, config.EstimatorConfig{MaxToolTurns: 2})

	done := make(chan struct{})
	var err error
	go func() {
		_, err = o.Estimate(context.Background(), nil, "loop forever")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Estimate did not terminate")
	}

	if errors.CodeOf(err) != errors.CodeBudgetExceeded {
		t.Fatalf("Expected budget error, got %v", err)
	}
	// Initial call plus one per allowed tool turn, then the cap trips
	if client.CallCount != 3 {
		t.Errorf("Expected 3 model calls before the cap, got %d", client.CallCount)
	}
}

func TestEstimateWallClockBudget(t *testing.T) {
	client := mealtesting.NewMockLLMClient()
	client.SetError(context.DeadlineExceeded)

	o := newTestOrchestrator(client, &stubTool{name: "nutrition_search"},
		config.EstimatorConfig{WallBudget: 1})

	_, err := o.Estimate(context.Background(), nil, "slow meal")
	if errors.CodeOf(err) != errors.CodeBudgetExceeded {
		t.Fatalf("Expected budget error for a deadline, got %v", err)
	}
}

func TestEstimateModelFailure(t *testing.T) {
	client := mealtesting.NewMockLLMClient()
	client.SetError(fmt.Errorf("connection refused"))

	o := newTestOrchestrator(client, &stubTool{name: "nutrition_search"}, config.EstimatorConfig{})

	_, err := o.Estimate(context.Background(), nil, "a meal")
	if errors.CodeOf(err) != errors.CodeExternalService {
		t.Fatalf("Expected external service error, got %v", err)
	}
}

func TestEstimateSanitizesOutboundText(t *testing.T) {
	client := mealtesting.NewMockLLMClient(mealtesting.TextResponse("**Calories: 300**"))
	o := newTestOrchestrator(client, &stubTool{name: "nutrition_search"}, config.EstimatorConfig{})

	history := []Turn{{Role: "user", Content: "earlier: mail me at a@b.com"}}
	if _, err := o.Estimate(context.Background(), history, "I ate eggs, I was diagnosed with diabetes"); err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	for _, msg := range client.LastRequest.Messages {
		if strings.Contains(msg.Content, "a@b.com") || strings.Contains(msg.Content, "diagnosed with diabetes") {
			t.Errorf("Unsanitized text sent to the model: %q", msg.Content)
		}
	}
}

func TestEstimateSanitizesInboundText(t *testing.T) {
	client := mealtesting.NewMockLLMClient(
		mealtesting.TextResponse("Contact me at leak@example.com. **Calories: 300**"),
	)
	o := newTestOrchestrator(client, &stubTool{name: "nutrition_search"}, config.EstimatorConfig{})

	result, err := o.Estimate(context.Background(), nil, "eggs")
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if strings.Contains(result.Message, "leak@example.com") {
		t.Errorf("Model echo not scrubbed: %q", result.Message)
	}
	if !reflect.DeepEqual(result.Calories, []int{300}) {
		t.Errorf("Extraction broken by scrubbing: %v", result.Calories)
	}
}

func TestEstimateAuditsRawModelEcho(t *testing.T) {
	client := mealtesting.NewMockLLMClient(
		mealtesting.TextResponse("Contact me at leak@example.com. **Calories: 300**"),
	)
	logger, logs := logging.NewObservedLogger()
	o := NewOrchestrator(
		client,
		tools.NewRegistry(&stubTool{name: "nutrition_search"}),
		sanitize.NewGateway(),
		config.EstimatorConfig{},
		config.LLMConfig{},
		"You estimate calories.",
		logger,
	)

	result, err := o.Estimate(context.Background(), nil, "eggs")
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if strings.Contains(result.Message, "leak@example.com") {
		t.Errorf("Model echo not scrubbed: %q", result.Message)
	}

	// The audit must reflect the text as it arrived, before scrubbing
	entries := logs.FilterMessage("estimation finished").All()
	if len(entries) != 1 {
		t.Fatalf("Expected one finish entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if flagged, _ := fields["contained_phi"].(bool); !flagged {
		t.Errorf("Echoed address not flagged in the audit: %v", fields)
	}
	hash, _ := fields["response_hash"].(string)
	rawSum := sha256.Sum256([]byte("Contact me at leak@example.com. **Calories: 300**"))
	if hash != hex.EncodeToString(rawSum[:]) {
		t.Errorf("Audit hash does not cover the raw reply: %q", hash)
	}
}

func TestEstimateNormalizesHistoryRoles(t *testing.T) {
	client := mealtesting.NewMockLLMClient(mealtesting.TextResponse("**Calories: 100**"))
	o := newTestOrchestrator(client, &stubTool{name: "nutrition_search"}, config.EstimatorConfig{})

	history := []Turn{
		{Role: "assistant", Content: "Earlier answer"},
		{Role: "system", Content: "should become user"},
	}
	if _, err := o.Estimate(context.Background(), history, "next meal"); err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	msgs := client.LastRequest.Messages
	if msgs[0].Role != "assistant" {
		t.Errorf("Assistant role not preserved: %q", msgs[0].Role)
	}
	if msgs[1].Role != "user" {
		t.Errorf("Unknown role not normalized to user: %q", msgs[1].Role)
	}
}
