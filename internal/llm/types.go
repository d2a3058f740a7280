package llm

import (
	"context"
	"fmt"
)

// Completer is the capability the grading pipeline needs from a model
// provider: one prompt in, free-form text out.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

// ServiceError wraps a failed model call so callers can distinguish
// "the model graded this as wrong" from "the model was unreachable".
type ServiceError struct {
	Op      string // "complete" or "list-models"
	Wrapped error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("model service: %s: %v", e.Op, e.Wrapped)
}

func (e *ServiceError) Unwrap() error {
	return e.Wrapped
}

// ModelInfo describes a model available on the provider.
type ModelInfo struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at"`
}
