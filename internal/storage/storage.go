// Package storage defines the persistence interface for users and their
// submission history.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a user lookup matches nothing.
var ErrNotFound = errors.New("not found")

// User is a registered learner (or admin).
type User struct {
	ID        int64     `json:"id"`
	StudentID string    `json:"student_id"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmissionRecord is one judged submission. Rows are insert-only: the
// verdict is whatever the judge said at creation time and is never
// recomputed, updated or deleted.
type SubmissionRecord struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Problem   string    `json:"problem"`
	Code      string    `json:"code"`
	Output    string    `json:"output"`
	Correct   bool      `json:"correct"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordFilter narrows a history query. Zero values mean "no filter".
type RecordFilter struct {
	From    time.Time
	To      time.Time
	Verdict *bool
	Limit   int
	Offset  int
}

// Store is the persistence interface.
type Store interface {
	// CreateUser inserts a new user and fills in its ID.
	// A duplicate student ID is an error.
	CreateUser(ctx context.Context, u *User) error

	// GetUser returns a user by primary key, or ErrNotFound.
	GetUser(ctx context.Context, id int64) (*User, error)

	// FindUser looks a user up by student ID and name, or ErrNotFound.
	FindUser(ctx context.Context, studentID, name string) (*User, error)

	// ListLearners returns all non-admin users ordered by name.
	ListLearners(ctx context.Context) ([]User, error)

	// AppendRecord inserts one submission record and fills in its ID and
	// CreatedAt. Single statement: the full row is stored or none of it.
	AppendRecord(ctx context.Context, r *SubmissionRecord) error

	// ListRecords returns a user's records, newest first.
	ListRecords(ctx context.Context, userID int64, f RecordFilter) ([]SubmissionRecord, error)

	// ListRecordDates returns the distinct dates (YYYY-MM-DD, newest
	// first) on which a user submitted.
	ListRecordDates(ctx context.Context, userID int64) ([]string, error)

	// Close releases resources.
	Close() error
}
