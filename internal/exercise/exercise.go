// Package exercise defines the generated-exercise type, the prompt that
// asks a model to produce one, and the parser for the model's reply.
package exercise

// Exercise is a generated problem together with its reference solution
// and the output that solution prints. It lives in the learner's session
// until the next generation overwrites it; it is never stored on its own.
type Exercise struct {
	Problem         string `json:"problem"`
	ReferenceCode   string `json:"reference_code"`
	ReferenceOutput string `json:"reference_output"`
}

// Section headers of the generation contract. The prompt instructs the
// model to emit exactly these; the parser matches them back out.
const (
	HeaderProblem         = "### Problem"
	HeaderReferenceCode   = "### Reference Code"
	HeaderReferenceOutput = "### Reference Output"
)

// Defaults applied when the caller leaves category or difficulty blank.
const (
	DefaultCategory   = "for-loop"
	DefaultDifficulty = "beginner"
)
