// Package session holds per-learner transient state: who is logged in
// and which exercise they are currently working on.
//
// The current-exercise slot is scoped to one session token. It is never
// shared across learners, and two browsers logged in as the same learner
// get independent slots.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/codedrill/codedrill/internal/exercise"
)

var (
	// ErrNotFound means the token does not resolve to a live session.
	ErrNotFound = errors.New("session not found")
	// ErrNoExercise means the session has no current exercise; the
	// learner must generate one first. Reachable, not exceptional.
	ErrNoExercise = errors.New("no current exercise")
)

// Session is the per-learner transient state keyed by an opaque token.
type Session struct {
	Token     string             `json:"token"`
	UserID    int64              `json:"user_id"`
	StudentID string             `json:"student_id"`
	Name      string             `json:"name"`
	IsAdmin   bool               `json:"is_admin"`
	Exercise  *exercise.Exercise `json:"exercise,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// Store is the session state backend.
type Store interface {
	// Create registers a new session under its token.
	Create(ctx context.Context, sess *Session) error

	// Get resolves a token, or ErrNotFound.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete drops a session (logout). Unknown tokens are a no-op.
	Delete(ctx context.Context, token string) error

	// SetExercise replaces the session's current exercise.
	SetExercise(ctx context.Context, token string, ex *exercise.Exercise) error

	// CurrentExercise returns the session's exercise, ErrNoExercise when
	// none has been generated yet, or ErrNotFound.
	CurrentExercise(ctx context.Context, token string) (*exercise.Exercise, error)

	// Close releases backend resources.
	Close() error
}
