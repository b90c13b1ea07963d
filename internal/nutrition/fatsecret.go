package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/user/mealcal/internal/config"
	"github.com/user/mealcal/internal/logging"
)

// tokenRefreshBuffer is subtracted from the token lifetime so a token is
// never used within five minutes of expiry.
const tokenRefreshBuffer = 5 * time.Minute

// descriptionPattern recovers numeric fields from the combined
// description string used when serving-level fields are absent, e.g.
// "Per 1 cup - Calories: 240kcal | Fat: 8.00g | Carbs: 12.00g | Protein: 8.00g".
var descriptionPattern = regexp.MustCompile(
	`(?i)Per\s+(.+?)\s*-\s*Calories:\s*([\d.]+)\s*kcal\s*\|\s*Fat:\s*([\d.]+)\s*g\s*\|\s*Carbs:\s*([\d.]+)\s*g\s*\|\s*Protein:\s*([\d.]+)\s*g`)

// Record is one serving-scoped nutrition fact. Numeric fields are
// optional and always relative to Serving, never to the user's quantity.
type Record struct {
	Name     string
	Brand    string
	Serving  string
	Calories *float64
	Fat      *float64
	Carbs    *float64
	Protein  *float64
}

// FatSecretProvider looks up foods in the FatSecret platform API using
// OAuth2 client-credentials tokens.
type FatSecretProvider struct {
	cfg    config.FatSecretConfig
	client Doer
	logger *logging.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	refresh   singleflight.Group
}

// NewFatSecretProvider creates a new FatSecret provider. A nil client
// falls back to a plain HTTP client with the configured timeout.
func NewFatSecretProvider(cfg config.FatSecretConfig, client Doer, logger *logging.Logger) *FatSecretProvider {
	if cfg.TokenURL == "" {
		cfg.TokenURL = "https://oauth.fatsecret.com/connect/token"
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "https://platform.fatsecret.com/rest/server.api"
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.GetTimeout()}
	}
	return &FatSecretProvider{
		cfg:    cfg,
		client: client,
		logger: logger.Named("fatsecret"),
	}
}

// Name returns the provider name
func (p *FatSecretProvider) Name() string {
	return "fatsecret"
}

// Lookup searches the food database and formats up to MaxResults matches.
// Without configured credentials it reports ErrNoData immediately, never
// touching the token endpoint.
func (p *FatSecretProvider) Lookup(ctx context.Context, query string) (string, error) {
	if !p.cfg.Configured() {
		return "", ErrNoData
	}

	token, err := p.getToken(ctx)
	if err != nil {
		return "", fmt.Errorf("token acquisition failed: %w", err)
	}

	records, err := p.search(ctx, token, query)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", ErrNoData
	}

	return formatRecords(query, records), nil
}

// getToken returns a cached token, refreshing through a single flight
// when the cached one is missing or inside the refresh buffer.
func (p *FatSecretProvider) getToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.token != "" && time.Now().Add(tokenRefreshBuffer).Before(p.expiresAt) {
		token := p.token
		p.mu.Unlock()
		return token, nil
	}
	p.mu.Unlock()

	token, err, _ := p.refresh.Do("token", func() (interface{}, error) {
		// A concurrent flight may have refreshed while we waited
		p.mu.Lock()
		if p.token != "" && time.Now().Add(tokenRefreshBuffer).Before(p.expiresAt) {
			token := p.token
			p.mu.Unlock()
			return token, nil
		}
		p.mu.Unlock()

		token, expiresAt, err := p.requestToken(ctx)
		if err != nil {
			return "", err
		}

		p.mu.Lock()
		// Keep the longer-lived token if a reordered completion left a
		// fresher one in the cache
		if expiresAt.After(p.expiresAt) {
			p.token = token
			p.expiresAt = expiresAt
		} else {
			token = p.token
		}
		p.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// requestToken performs the client-credentials grant
func (p *FatSecretProvider) requestToken(ctx context.Context) (string, time.Time, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", "basic")

	req, err := http.NewRequestWithContext(ctx, "POST", p.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.cfg.ClientID, p.cfg.ClientSecret)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", time.Time{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", time.Time{}, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to parse token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("token response contained no access_token")
	}

	p.logger.Debug("credential token refreshed",
		logging.Int("expires_in", payload.ExpiresIn),
	)

	return payload.AccessToken, time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second), nil
}

// fsFood is one match from foods.search. Serving-level fields arrive as
// strings; the combined description is the fallback source.
type fsFood struct {
	FoodName        string `json:"food_name"`
	BrandName       string `json:"brand_name"`
	FoodDescription string `json:"food_description"`
	Servings        *struct {
		Serving json.RawMessage `json:"serving"`
	} `json:"servings"`
}

type fsServing struct {
	ServingDescription string `json:"serving_description"`
	Calories           string `json:"calories"`
	Fat                string `json:"fat"`
	Carbohydrate       string `json:"carbohydrate"`
	Protein            string `json:"protein"`
}

// search issues foods.search and converts the matches into Records
func (p *FatSecretProvider) search(ctx context.Context, token, query string) ([]Record, error) {
	form := url.Values{}
	form.Set("method", "foods.search")
	form.Set("search_expression", query)
	form.Set("format", "json")
	form.Set("max_results", strconv.Itoa(p.cfg.GetMaxResults()))

	req, err := http.NewRequestWithContext(ctx, "POST", p.cfg.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Foods struct {
			Food json.RawMessage `json:"food"`
		} `json:"foods"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	foods, err := decodeOneOrMany[fsFood](payload.Foods.Food)
	if err != nil {
		return nil, fmt.Errorf("failed to parse food matches: %w", err)
	}

	records := make([]Record, 0, len(foods))
	for i, food := range foods {
		if i >= p.cfg.GetMaxResults() {
			break
		}
		records = append(records, p.toRecord(food))
	}
	return records, nil
}

// toRecord prefers structured serving fields and falls back to parsing
// the combined description string
func (p *FatSecretProvider) toRecord(food fsFood) Record {
	rec := Record{Name: food.FoodName, Brand: food.BrandName}

	if food.Servings != nil {
		if servings, err := decodeOneOrMany[fsServing](food.Servings.Serving); err == nil && len(servings) > 0 {
			s := servings[0]
			rec.Serving = s.ServingDescription
			rec.Calories = parseOptionalFloat(s.Calories)
			rec.Fat = parseOptionalFloat(s.Fat)
			rec.Carbs = parseOptionalFloat(s.Carbohydrate)
			rec.Protein = parseOptionalFloat(s.Protein)
		}
	}

	if rec.Calories == nil && food.FoodDescription != "" {
		if m := descriptionPattern.FindStringSubmatch(food.FoodDescription); m != nil {
			rec.Serving = m[1]
			rec.Calories = parseOptionalFloat(m[2])
			rec.Fat = parseOptionalFloat(m[3])
			rec.Carbs = parseOptionalFloat(m[4])
			rec.Protein = parseOptionalFloat(m[5])
		}
	}

	if rec.Serving == "" {
		rec.Serving = "1 serving"
	}
	return rec
}

// decodeOneOrMany handles the API quirk where a single match arrives as
// an object instead of a one-element array
func decodeOneOrMany[T any](raw json.RawMessage) ([]T, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var many []T
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}

	var one T
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []T{one}, nil
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

// formatRecords renders one block per match. Every value repeats its
// serving size, and the trailing reminder tells the model the figures
// are per serving and must be scaled to the user's actual quantity.
func formatRecords(query string, records []Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Nutrition database matches for %q:\n", query)

	for i, rec := range records {
		name := rec.Name
		if rec.Brand != "" {
			name = fmt.Sprintf("%s (%s)", rec.Name, rec.Brand)
		}
		fmt.Fprintf(&sb, "\n%d. %s - serving size: %s\n", i+1, name, rec.Serving)
		writeValue(&sb, "Calories", rec.Calories, "kcal", rec.Serving)
		writeValue(&sb, "Fat", rec.Fat, "g", rec.Serving)
		writeValue(&sb, "Carbs", rec.Carbs, "g", rec.Serving)
		writeValue(&sb, "Protein", rec.Protein, "g", rec.Serving)
	}

	sb.WriteString("\nIMPORTANT: every value above is per the serving size listed with it, not per the user's stated quantity. Scale each value to the quantity the user actually consumed.")
	return sb.String()
}

func writeValue(sb *strings.Builder, label string, value *float64, unit, serving string) {
	if value == nil {
		fmt.Fprintf(sb, "   %s: unknown\n", label)
		return
	}
	fmt.Fprintf(sb, "   %s: %s %s per %s\n", label, trimFloat(*value), unit, serving)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
