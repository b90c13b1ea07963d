package prompts

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SystemPromptKey names the prompt driving the estimation conversation
const SystemPromptKey = "calorie_estimator_system"

// defaults are the built-in prompts. Operators can override any key by
// dropping a YAML file into the configured prompt directory.
var defaults = map[string]string{
	SystemPromptKey: `You are a nutrition assistant. The user describes what they ate; your job is to estimate total calories and macronutrients.

Use the nutrition_search tool to look up foods you are not certain about, especially branded or packaged products. Tool results report values per serving; always scale them to the quantity the user actually consumed.

End your reply with one line in exactly this format:
**Calories: <total>** | **Carbs: <g>g** | **Fat: <g>g** | **Protein: <g>g**

Round every value to a whole number. If you had to guess, say so briefly before the final line.`,
}

// Manager resolves prompt text, preferring operator overrides over the
// built-in defaults.
type Manager struct {
	prompts map[string]string
	sources map[string]string
}

// NewManager creates a manager with the built-in prompts plus any YAML
// overrides found in overrideDir. An empty or missing directory is fine.
func NewManager(overrideDir string) (*Manager, error) {
	pm := &Manager{
		prompts: make(map[string]string, len(defaults)),
		sources: make(map[string]string, len(defaults)),
	}
	for key, value := range defaults {
		pm.prompts[key] = value
		pm.sources[key] = "builtin"
	}

	if overrideDir != "" {
		if _, err := os.Stat(overrideDir); err == nil {
			if err := pm.loadDirectory(overrideDir); err != nil {
				return nil, fmt.Errorf("failed to load prompt overrides: %w", err)
			}
		}
	}

	return pm, nil
}

// NewManagerFromMap creates a manager from a map (useful for testing)
func NewManagerFromMap(prompts map[string]string) *Manager {
	sources := make(map[string]string, len(prompts))
	for key := range prompts {
		sources[key] = "test:map"
	}
	return &Manager{prompts: prompts, sources: sources}
}

// loadDirectory merges every YAML file in dir into the prompt map
func (pm *Manager) loadDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		filePath := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", filePath, err)
		}

		var prompts map[string]string
		if err := yaml.Unmarshal(data, &prompts); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filePath, err)
		}

		for key, value := range prompts {
			pm.prompts[key] = value
			pm.sources[key] = entry.Name()
		}
	}

	return nil
}

// Get returns a prompt by name
func (pm *Manager) Get(name string) (string, error) {
	prompt, ok := pm.prompts[name]
	if !ok {
		return "", fmt.Errorf("prompt '%s' not found", name)
	}
	return prompt, nil
}

// GetSource returns where a prompt came from (for debugging)
func (pm *Manager) GetSource(name string) string {
	if source, ok := pm.sources[name]; ok {
		return source
	}
	return "unknown"
}
