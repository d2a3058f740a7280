package grading

import "fmt"

// PersistenceError means the submission was judged but the history row
// could not be written. Callers must surface it: the learner's result
// exists but was not recorded.
type PersistenceError struct {
	Wrapped error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("recording submission: %v", e.Wrapped)
}

func (e *PersistenceError) Unwrap() error {
	return e.Wrapped
}
