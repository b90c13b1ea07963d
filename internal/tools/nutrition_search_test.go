package tools

import (
	"context"
	"testing"

	"github.com/user/mealcal/internal/logging"
	"github.com/user/mealcal/internal/nutrition"
)

type cannedProvider struct{ result string }

func (cannedProvider) Name() string { return "canned" }

func (p cannedProvider) Lookup(ctx context.Context, query string) (string, error) {
	return p.result, nil
}

func newTool(result string) *NutritionSearchTool {
	resolver := nutrition.NewResolver(logging.NewNopLogger(), cannedProvider{result: result})
	return NewNutritionSearchTool(resolver)
}

func TestExecuteReturnsResolverText(t *testing.T) {
	tool := newTool("Banana: 105 kcal per 1 medium")

	out, err := tool.Execute(context.Background(), map[string]interface{}{"query": "banana"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "Banana: 105 kcal per 1 medium" {
		t.Errorf("Unexpected output: %q", out)
	}
}

func TestExecuteRequiresQuery(t *testing.T) {
	tool := newTool("irrelevant")

	cases := []map[string]interface{}{
		{},
		{"query": ""},
		{"query": 42},
	}
	for _, params := range cases {
		if _, err := tool.Execute(context.Background(), params); err == nil {
			t.Errorf("Expected an error for params %v", params)
		}
	}
}

func TestRegistryDefinitions(t *testing.T) {
	tool := newTool("x")
	registry := NewRegistry(tool)

	defs := registry.Definitions()
	if len(defs) != 1 {
		t.Fatalf("Expected 1 definition, got %d", len(defs))
	}
	if defs[0].Name != "nutrition_search" {
		t.Errorf("Unexpected tool name %q", defs[0].Name)
	}
	required, _ := defs[0].Parameters["required"].([]string)
	if len(required) != 1 || required[0] != "query" {
		t.Errorf("Query parameter not required: %+v", defs[0].Parameters)
	}

	if _, ok := registry.Get("nutrition_search"); !ok {
		t.Errorf("Registered tool not found")
	}
	if _, ok := registry.Get("unknown"); ok {
		t.Errorf("Unknown tool reported as found")
	}
}
