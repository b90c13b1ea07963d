package tools

import (
	"context"
	"fmt"

	"github.com/user/mealcal/internal/nutrition"
)

// NutritionSearchTool lets the model look up nutrition facts for a food
// or ingredient. It wraps the resolver, so the model always gets text
// back even when every upstream source is empty.
type NutritionSearchTool struct {
	resolver *nutrition.Resolver
}

// NewNutritionSearchTool creates a new nutrition search tool
func NewNutritionSearchTool(resolver *nutrition.Resolver) *NutritionSearchTool {
	return &NutritionSearchTool{resolver: resolver}
}

// Name returns the tool name
func (t *NutritionSearchTool) Name() string {
	return "nutrition_search"
}

// Description returns a description of what the tool does
func (t *NutritionSearchTool) Description() string {
	return "Search for nutrition facts (calories, fat, carbohydrates, protein) for a food, " +
		"ingredient, or packaged product. Use one concise food name per call, " +
		"for example 'Coffee-mate French Vanilla creamer' or 'banana'."
}

// Parameters returns the JSON schema for the tool's parameters
func (t *NutritionSearchTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The food or product to look up",
			},
		},
		"required": []string{"query"},
	}
}

// Execute runs the lookup for the requested query
func (t *NutritionSearchTool) Execute(ctx context.Context, params map[string]interface{}) (string, error) {
	query, ok := params["query"].(string)
	if !ok || query == "" {
		return "", fmt.Errorf("query parameter is required and must be a string")
	}
	return t.resolver.Resolve(ctx, query), nil
}
