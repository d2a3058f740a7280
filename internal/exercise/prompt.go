package exercise

import (
	"fmt"
	"strings"
)

// BuildGenerationPrompt constructs the prompt that asks the model for a
// fresh exercise. Empty category or difficulty fall back to the defaults.
// No side effects; the same inputs always produce the same prompt.
func BuildGenerationPrompt(category, difficulty string) string {
	if strings.TrimSpace(category) == "" {
		category = DefaultCategory
	}
	if strings.TrimSpace(difficulty) == "" {
		difficulty = DefaultDifficulty
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create one %s-level Python practice exercise for the %q concept.\n\n", difficulty, category)
	b.WriteString("Rules:\n")
	b.WriteString("- The exercise must be solvable with variables only. No input(), no files, no network.\n")
	b.WriteString("- The reference code must be a complete program that prints its result.\n")
	b.WriteString("- The reference output must be exactly what the reference code prints.\n\n")
	b.WriteString("Reply in exactly three sections with these headers:\n\n")
	b.WriteString(HeaderProblem + "\n")
	b.WriteString("<the problem statement>\n\n")
	b.WriteString(HeaderReferenceCode + "\n")
	b.WriteString("<the reference solution>\n\n")
	b.WriteString(HeaderReferenceOutput + "\n")
	b.WriteString("<the exact output of the reference solution>\n")
	return b.String()
}
