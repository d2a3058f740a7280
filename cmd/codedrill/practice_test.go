package main

import (
	"testing"

	"github.com/codedrill/codedrill/internal/exercise"
)

func TestFormatCategories(t *testing.T) {
	got := formatCategories([]exercise.Preset{
		{Name: "for-loop", Label: "For loops"},
		{Name: "strings", Label: "Strings"},
	})
	if got != "for-loop, strings" {
		t.Errorf("formatCategories = %q", got)
	}
}

func TestFormatCategoriesDefaults(t *testing.T) {
	got := formatCategories(exercise.DefaultPresets())
	if got == "" {
		t.Fatal("default presets render empty")
	}
}
