package estimator

import (
	"regexp"
	"strconv"
	"strings"
)

// Result holds the final assistant text plus the numeric fields recovered
// from it. Calories may hold several values when only legacy formatting was
// found; macros are populated from the structured pattern only.
type Result struct {
	Message  string
	Calories []int
	Carbs    *int
	Fat      *int
	Protein  *int
}

var (
	caloriesPattern = regexp.MustCompile(`(?i)\*\*\s*calories:\s*([\d,]+)\s*\*\*`)
	carbsPattern    = regexp.MustCompile(`(?i)\*\*\s*carbs:\s*([\d,]+)\s*g?\s*\*\*`)
	fatPattern      = regexp.MustCompile(`(?i)\*\*\s*fat:\s*([\d,]+)\s*g?\s*\*\*`)
	proteinPattern  = regexp.MustCompile(`(?i)\*\*\s*protein:\s*([\d,]+)\s*g?\s*\*\*`)

	// Older replies put the number first, e.g. "**450 calories**" or
	// plain "approximately 450 calories".
	legacyBoldPattern  = regexp.MustCompile(`(?i)\*\*\s*([\d,]+)\s*(?:calories|cal)\s*\*\*`)
	legacyPlainPattern = regexp.MustCompile(`(?i)\b([\d,]+)\s*calories\b`)
)

// Extract parses the assistant's free-form reply into structured numbers.
// It never fails; text without any recognizable pattern yields an empty
// calorie list and nil macros.
func Extract(text string) Result {
	result := Result{Message: text}

	if m := caloriesPattern.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			result.Calories = []int{v}
		}
	}

	if len(result.Calories) > 0 {
		// Macros are trusted only alongside the structured calorie line
		result.Carbs = matchAmount(carbsPattern, text)
		result.Fat = matchAmount(fatPattern, text)
		result.Protein = matchAmount(proteinPattern, text)
		return result
	}

	seen := make(map[int]bool)
	for _, m := range legacyBoldPattern.FindAllStringSubmatch(text, -1) {
		if v, ok := parseAmount(m[1]); ok && !seen[v] {
			seen[v] = true
			result.Calories = append(result.Calories, v)
		}
	}
	for _, m := range legacyPlainPattern.FindAllStringSubmatch(text, -1) {
		if v, ok := parseAmount(m[1]); ok && !seen[v] {
			seen[v] = true
			result.Calories = append(result.Calories, v)
		}
	}

	return result
}

func matchAmount(pattern *regexp.Regexp, text string) *int {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, ok := parseAmount(m[1])
	if !ok {
		return nil
	}
	return &v
}

// parseAmount converts a matched number to an int, stripping thousands
// separators first.
func parseAmount(raw string) (int, bool) {
	v, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
