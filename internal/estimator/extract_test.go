package estimator

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtractPrimaryPattern(t *testing.T) {
	text := "Your meal totals:\n**Calories: 1,150** | **Carbs: 105g** | **Fat: 50g** | **Protein: 55g**"
	result := Extract(text)

	if !reflect.DeepEqual(result.Calories, []int{1150}) {
		t.Errorf("Expected calories [1150], got %v", result.Calories)
	}
	if result.Carbs == nil || *result.Carbs != 105 {
		t.Errorf("Expected carbs 105, got %v", result.Carbs)
	}
	if result.Fat == nil || *result.Fat != 50 {
		t.Errorf("Expected fat 50, got %v", result.Fat)
	}
	if result.Protein == nil || *result.Protein != 55 {
		t.Errorf("Expected protein 55, got %v", result.Protein)
	}
	if result.Message != text {
		t.Errorf("Expected message to pass through unchanged")
	}
}

func TestExtractPrimaryPatternCaseInsensitive(t *testing.T) {
	result := Extract("**calories: 320** | **CARBS: 40g**")

	if !reflect.DeepEqual(result.Calories, []int{320}) {
		t.Errorf("Expected calories [320], got %v", result.Calories)
	}
	if result.Carbs == nil || *result.Carbs != 40 {
		t.Errorf("Expected carbs 40, got %v", result.Carbs)
	}
}

func TestExtractLegacyBoldFallback(t *testing.T) {
	result := Extract("This meal is about **450 calories**")

	if !reflect.DeepEqual(result.Calories, []int{450}) {
		t.Errorf("Expected calories [450], got %v", result.Calories)
	}
	if result.Carbs != nil || result.Fat != nil || result.Protein != nil {
		t.Errorf("Expected nil macros on the legacy path, got carbs=%v fat=%v protein=%v",
			result.Carbs, result.Fat, result.Protein)
	}
}

func TestExtractLegacyPlainFallback(t *testing.T) {
	result := Extract("That comes to approximately 450 calories, maybe a bit more.")

	if !reflect.DeepEqual(result.Calories, []int{450}) {
		t.Errorf("Expected calories [450], got %v", result.Calories)
	}
}

func TestExtractLegacyDeduplicatesByValue(t *testing.T) {
	text := "The sandwich is **450 calories**. So in total, approximately 450 calories."
	result := Extract(text)

	if !reflect.DeepEqual(result.Calories, []int{450}) {
		t.Errorf("Expected deduplicated [450], got %v", result.Calories)
	}
}

func TestExtractLegacyCollectsDistinctValues(t *testing.T) {
	text := "The burger is **550 calories** and the fries are **320 calories**."
	result := Extract(text)

	if !reflect.DeepEqual(result.Calories, []int{550, 320}) {
		t.Errorf("Expected [550, 320], got %v", result.Calories)
	}
}

func TestExtractPrimaryWinsOverLegacy(t *testing.T) {
	text := "That is roughly 700 calories.\n**Calories: 720** | **Protein: 30g**"
	result := Extract(text)

	if !reflect.DeepEqual(result.Calories, []int{720}) {
		t.Errorf("Expected primary value [720], got %v", result.Calories)
	}
	if result.Protein == nil || *result.Protein != 30 {
		t.Errorf("Expected protein 30, got %v", result.Protein)
	}
}

func TestExtractMacrosOnlyFromPrimary(t *testing.T) {
	// A macro line without the calorie line is not trusted
	result := Extract("**450 calories** with **Protein: 20g** listed separately")

	if !reflect.DeepEqual(result.Calories, []int{450}) {
		t.Errorf("Expected calories [450], got %v", result.Calories)
	}
	if result.Protein != nil {
		t.Errorf("Expected nil protein without the primary calorie pattern, got %v", result.Protein)
	}
}

func TestExtractNoPattern(t *testing.T) {
	result := Extract("I could not determine the nutritional content of that meal.")

	if len(result.Calories) != 0 {
		t.Errorf("Expected no calories, got %v", result.Calories)
	}
	if result.Carbs != nil || result.Fat != nil || result.Protein != nil {
		t.Errorf("Expected all macros nil")
	}
}

func TestExtractAdversarialText(t *testing.T) {
	inputs := []string{
		"",
		"**Calories: **",
		"**Calories: ,,,**",
		"****",
		strings.Repeat("**9 calories** ", 1000),
		"**Calories: 99999999999999999999**",
	}
	for _, input := range inputs {
		result := Extract(input)
		for _, v := range result.Calories {
			if v < 0 {
				t.Errorf("Extract(%q) produced negative calorie value %d", input, v)
			}
		}
	}
}
