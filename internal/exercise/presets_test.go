package exercise

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPresets(t *testing.T) {
	presets := DefaultPresets()
	if len(presets) == 0 {
		t.Fatal("expected built-in presets")
	}

	found := false
	for _, p := range presets {
		if p.Name == DefaultCategory {
			found = true
		}
		if p.Name == "" || p.Label == "" {
			t.Errorf("preset %+v missing name or label", p)
		}
	}
	if !found {
		t.Errorf("default category %q not among presets", DefaultCategory)
	}
}

func TestLoadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	data := `- name: recursion
  label: Recursion
  difficulties: [intermediate, advanced]
- name: sets
  label: Sets
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	presets, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("LoadPresets: %v", err)
	}
	if len(presets) != 2 {
		t.Fatalf("got %d presets, want 2", len(presets))
	}
	if presets[0].Name != "recursion" || len(presets[0].Difficulties) != 2 {
		t.Errorf("unexpected first preset: %+v", presets[0])
	}
}

func TestLoadPresetsRejectsUnnamed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	if err := os.WriteFile(path, []byte("- label: Nameless\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadPresets(path); err == nil {
		t.Fatal("expected error for preset without name")
	}
}
