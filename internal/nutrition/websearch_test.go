package nutrition

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/user/mealcal/internal/config"
	"github.com/user/mealcal/internal/llm"
	"github.com/user/mealcal/internal/logging"
	mealtesting "github.com/user/mealcal/internal/testing"
)

func newSearchProvider(baseURL string) *WebSearchProvider {
	return NewWebSearchProvider(config.SearchConfig{BaseURL: baseURL}, nil, logging.NewNopLogger())
}

func TestWebSearchAppendsNutritionTerms(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		mealtesting.DuckDuckGoHandler("", "A banana has about 105 calories.")(w, r)
	}))
	defer server.Close()

	p := newSearchProvider(server.URL)
	if _, err := p.Lookup(context.Background(), "banana"); err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if gotQuery != "banana nutrition calories" {
		t.Errorf("Expected augmented query, got %q", gotQuery)
	}
}

func TestWebSearchCollectsAnswerAndAbstract(t *testing.T) {
	server := httptest.NewServer(mealtesting.DuckDuckGoHandler(
		"Bananas are rich in potassium.",
		"A banana has about 105 calories."))
	defer server.Close()

	p := newSearchProvider(server.URL)
	result, err := p.Lookup(context.Background(), "banana")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	if !strings.Contains(result, "Answer: A banana has about 105 calories.") {
		t.Errorf("Expected answer line, got:\n%s", result)
	}
	if !strings.Contains(result, "Summary: Bananas are rich in potassium.") {
		t.Errorf("Expected summary line, got:\n%s", result)
	}
}

func TestWebSearchFiltersRelatedTopics(t *testing.T) {
	server := httptest.NewServer(mealtesting.DuckDuckGoHandler("", "",
		"Banana bread recipe ideas",
		"A medium banana has 105 Calories",
		"Banana Nutrition facts and analysis",
		"History of banana cultivation",
		"Calorie density of tropical fruit",
		"More CALORIE trivia than anyone needs"))
	defer server.Close()

	p := newSearchProvider(server.URL)
	result, err := p.Lookup(context.Background(), "banana")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	if strings.Contains(result, "recipe ideas") || strings.Contains(result, "History of banana") {
		t.Errorf("Irrelevant topics were kept:\n%s", result)
	}
	if got := strings.Count(result, "Related: "); got != 3 {
		t.Errorf("Expected 3 related snippets, got %d:\n%s", got, result)
	}
}

func TestWebSearchNoData(t *testing.T) {
	server := httptest.NewServer(mealtesting.DuckDuckGoHandler("", "",
		"Nothing relevant here"))
	defer server.Close()

	p := newSearchProvider(server.URL)
	_, err := p.Lookup(context.Background(), "banana")
	if !stderrors.Is(err, ErrNoData) {
		t.Fatalf("Expected ErrNoData, got %v", err)
	}
}

func TestWebSearchRetriesTransientFailures(t *testing.T) {
	handler := mealtesting.NewRetryHandler(1, http.StatusServiceUnavailable, "try later",
		mealtesting.DuckDuckGoHandler("", "A banana has about 105 calories."))
	server := httptest.NewServer(handler)
	defer server.Close()

	p := NewWebSearchProvider(config.SearchConfig{BaseURL: server.URL},
		llm.NewRetryClientWithTimeout(5*time.Second, &llm.RetryConfig{
			MaxAttempts:  3,
			Multiplier:   0,
			MaxTotalWait: time.Minute,
		}), logging.NewNopLogger())

	result, err := p.Lookup(context.Background(), "banana")
	if err != nil {
		t.Fatalf("Lookup failed despite retries: %v", err)
	}
	if !strings.Contains(result, "105 calories") {
		t.Errorf("Expected data after retry, got:\n%s", result)
	}
	if handler.CallCount() != 2 {
		t.Errorf("Expected 2 attempts, got %d", handler.CallCount())
	}
}

func TestWebSearchErrorStatus(t *testing.T) {
	server := httptest.NewServer(mealtesting.InternalErrorHandler("boom"))
	defer server.Close()

	p := newSearchProvider(server.URL)
	if _, err := p.Lookup(context.Background(), "banana"); err == nil {
		t.Fatalf("Expected an error for a 500 response")
	}
}
