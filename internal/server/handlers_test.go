package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/user/mealcal/internal/config"
	"github.com/user/mealcal/internal/estimator"
	"github.com/user/mealcal/internal/logging"
	"github.com/user/mealcal/internal/sanitize"
	mealtesting "github.com/user/mealcal/internal/testing"
	"github.com/user/mealcal/internal/tools"
)

type noopTool struct{}

func (noopTool) Name() string        { return "nutrition_search" }
func (noopTool) Description() string { return "noop" }

func (noopTool) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}

func (noopTool) Execute(_ context.Context, _ map[string]interface{}) (string, error) {
	return "no data", nil
}

func newTestServer(client *mealtesting.MockLLMClient) *Server {
	logger := logging.NewNopLogger()
	orchestrator := estimator.NewOrchestrator(
		client,
		tools.NewRegistry(noopTool{}),
		sanitize.NewGateway(),
		config.EstimatorConfig{},
		config.LLMConfig{},
		"You estimate calories.",
		logger,
	)
	return New(config.ServerConfig{}, orchestrator, logger)
}

func postCalories(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/ai/calories", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestCaloriesEndpointSuccess(t *testing.T) {
	client := mealtesting.NewMockLLMClient(mealtesting.TextResponse(
		"**Calories: 1,150** | **Carbs: 105g** | **Fat: 50g** | **Protein: 55g**"))
	s := newTestServer(client)

	rec := postCalories(t, s, `{"message":"I ate a big lunch"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp caloriesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if len(resp.ExtractedCalories) != 1 || resp.ExtractedCalories[0] != 1150 {
		t.Errorf("Expected extractedCalories [1150], got %v", resp.ExtractedCalories)
	}
	if resp.ExtractedCarbs == nil || *resp.ExtractedCarbs != 105 {
		t.Errorf("Expected extractedCarbs 105, got %v", resp.ExtractedCarbs)
	}
	if resp.Message == "" {
		t.Errorf("Expected the assistant text in the response")
	}
}

func TestCaloriesEndpointNullMacros(t *testing.T) {
	client := mealtesting.NewMockLLMClient(mealtesting.TextResponse("Roughly **450 calories**"))
	s := newTestServer(client)

	rec := postCalories(t, s, `{"message":"a sandwich"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, field := range []string{`"extractedCarbs":null`, `"extractedFat":null`, `"extractedProtein":null`} {
		if !strings.Contains(body, field) {
			t.Errorf("Expected %s in body: %s", field, body)
		}
	}
}

func TestCaloriesEndpointMissingMessage(t *testing.T) {
	s := newTestServer(mealtesting.NewMockLLMClient())

	for _, body := range []string{`{}`, `{"message":""}`, `{"message":"   "}`} {
		rec := postCalories(t, s, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Body %s: expected 400, got %d", body, rec.Code)
		}
		var resp errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Error == "" {
			t.Errorf("Body %s: expected an error payload, got %s", body, rec.Body.String())
		}
	}
}

func TestCaloriesEndpointMalformedJSON(t *testing.T) {
	s := newTestServer(mealtesting.NewMockLLMClient())

	rec := postCalories(t, s, `{"message": `)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed JSON, got %d", rec.Code)
	}
}

func TestCaloriesEndpointUpstreamFailure(t *testing.T) {
	client := mealtesting.NewMockLLMClient()
	client.SetError(errFailedUpstream)
	s := newTestServer(client)

	rec := postCalories(t, s, `{"message":"a meal"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}

	body := rec.Body.String()
	if strings.Contains(body, "secret detail") {
		t.Errorf("Internal error detail leaked to the client: %s", body)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Error == "" {
		t.Errorf("Expected a generic error payload, got %s", body)
	}
}

func TestCaloriesEndpointRejectsGet(t *testing.T) {
	s := newTestServer(mealtesting.NewMockLLMClient())

	req := httptest.NewRequest(http.MethodGet, "/api/ai/calories", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestCaloriesEndpointForwardsHistory(t *testing.T) {
	client := mealtesting.NewMockLLMClient(mealtesting.TextResponse("**Calories: 100**"))
	s := newTestServer(client)

	body := `{"message":"and a coffee","conversationHistory":[` +
		`{"role":"user","content":"I had toast"},` +
		`{"role":"assistant","content":"**Calories: 80**"}]}`
	rec := postCalories(t, s, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	if len(client.LastRequest.Messages) != 3 {
		t.Errorf("Expected 3 messages including history, got %d", len(client.LastRequest.Messages))
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(mealtesting.NewMockLLMClient())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /health, got %d", rec.Code)
	}
}

var errFailedUpstream = stderrors.New("secret detail: connection to provider refused")
