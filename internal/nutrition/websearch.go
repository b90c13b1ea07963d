package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/user/mealcal/internal/config"
	"github.com/user/mealcal/internal/logging"
)

const maxRelatedSnippets = 3

// WebSearchProvider queries the keyless DuckDuckGo instant-answer API.
// Results are free text; it is the fallback when the structured database
// has nothing.
type WebSearchProvider struct {
	baseURL string
	client  Doer
	logger  *logging.Logger
}

// NewWebSearchProvider creates a new web-search provider. A nil client
// falls back to a plain HTTP client with the configured timeout.
func NewWebSearchProvider(cfg config.SearchConfig, client Doer, logger *logging.Logger) *WebSearchProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.duckduckgo.com"
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.GetTimeout()}
	}
	return &WebSearchProvider{
		baseURL: baseURL,
		client:  client,
		logger:  logger.Named("websearch"),
	}
}

// Name returns the provider name
func (p *WebSearchProvider) Name() string {
	return "websearch"
}

type searchResponse struct {
	Abstract      string `json:"Abstract"`
	Answer        string `json:"Answer"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

// Lookup issues a keyless query with "nutrition calories" appended and
// assembles any answer, abstract, and up to three related snippets that
// mention calories or nutrition.
func (p *WebSearchProvider) Lookup(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("q", query+" nutrition calories")
	params.Set("format", "json")
	params.Set("no_html", "1")

	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("search returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to parse search response: %w", err)
	}

	var lines []string
	if payload.Answer != "" {
		lines = append(lines, "Answer: "+payload.Answer)
	}
	if payload.Abstract != "" {
		lines = append(lines, "Summary: "+payload.Abstract)
	}

	related := 0
	for _, topic := range payload.RelatedTopics {
		if related >= maxRelatedSnippets {
			break
		}
		lower := strings.ToLower(topic.Text)
		if strings.Contains(lower, "calorie") || strings.Contains(lower, "nutrition") {
			lines = append(lines, "Related: "+topic.Text)
			related++
		}
	}

	if len(lines) == 0 {
		return "", ErrNoData
	}

	p.logger.Debug("web search produced results", logging.Int("lines", len(lines)))

	return fmt.Sprintf("Web search results for %q:\n%s", query, strings.Join(lines, "\n")), nil
}
