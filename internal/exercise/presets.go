package exercise

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset is an advisory category offered to learners. Free-form
// categories are still accepted everywhere; presets only feed the
// category picker in the API and the practice REPL.
type Preset struct {
	Name         string   `yaml:"name" json:"name"`
	Label        string   `yaml:"label" json:"label"`
	Description  string   `yaml:"description,omitempty" json:"description,omitempty"`
	Difficulties []string `yaml:"difficulties,omitempty" json:"difficulties,omitempty"`
}

// DefaultPresets returns the built-in category list used when no presets
// file is configured.
func DefaultPresets() []Preset {
	difficulties := []string{"beginner", "intermediate", "advanced"}
	return []Preset{
		{Name: "for-loop", Label: "For loops", Description: "Iteration with for and range", Difficulties: difficulties},
		{Name: "while-loop", Label: "While loops", Description: "Condition-driven loops", Difficulties: difficulties},
		{Name: "conditionals", Label: "Conditionals", Description: "if / elif / else", Difficulties: difficulties},
		{Name: "strings", Label: "Strings", Description: "Slicing, formatting, methods", Difficulties: difficulties},
		{Name: "lists", Label: "Lists", Description: "Indexing, appending, comprehensions", Difficulties: difficulties},
		{Name: "dictionaries", Label: "Dictionaries", Description: "Key/value lookups and loops", Difficulties: difficulties},
		{Name: "functions", Label: "Functions", Description: "Defining and calling functions", Difficulties: difficulties},
	}
}

// LoadPresets reads a category presets file in YAML format.
func LoadPresets(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading presets %s: %w", path, err)
	}

	var presets []Preset
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("parsing presets %s: %w", path, err)
	}

	for i, p := range presets {
		if p.Name == "" {
			return nil, fmt.Errorf("presets %s: entry %d has no name", path, i)
		}
	}
	return presets, nil
}
