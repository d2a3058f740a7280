// Package sqlite implements storage.Store on a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codedrill/codedrill/internal/storage"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements storage.Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ storage.Store = (*SQLiteStore)(nil)

// Open creates or opens a SQLite database at the given path and runs
// migrations. Use ":memory:" for an in-memory database (useful for
// testing).
func Open(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// --- Users ---

func (s *SQLiteStore) CreateUser(ctx context.Context, u *storage.User) error {
	u.CreatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (student_id, name, is_admin, created_at)
		VALUES (?, ?, ?, ?)`,
		u.StudentID, u.Name, boolToInt(u.IsAdmin), u.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	u.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*storage.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, student_id, name, is_admin, created_at
		FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (s *SQLiteStore) FindUser(ctx context.Context, studentID, name string) (*storage.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, student_id, name, is_admin, created_at
		FROM users WHERE student_id = ? AND name = ?`, studentID, name)
	return scanUser(row)
}

func (s *SQLiteStore) ListLearners(ctx context.Context) ([]storage.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, student_id, name, is_admin, created_at
		FROM users WHERE is_admin = 0 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing learners: %w", err)
	}
	defer rows.Close()

	var users []storage.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// --- Submission records ---

func (s *SQLiteStore) AppendRecord(ctx context.Context, r *storage.SubmissionRecord) error {
	r.CreatedAt = time.Now().UTC()

	// One INSERT; the row lands whole or not at all.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO history (user_id, problem, code, output, is_correct, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.UserID, r.Problem, r.Code, r.Output, boolToInt(r.Correct), r.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}

	r.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) ListRecords(ctx context.Context, userID int64, f storage.RecordFilter) ([]storage.SubmissionRecord, error) {
	query := `SELECT id, user_id, problem, code, output, is_correct, created_at
		FROM history WHERE user_id = ?`
	args := []any{userID}

	if !f.From.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if !f.To.IsZero() {
		query += ` AND created_at < ?`
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	if f.Verdict != nil {
		query += ` AND is_correct = ?`
		args = append(args, boolToInt(*f.Verdict))
	}

	query += ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []storage.SubmissionRecord
	for rows.Next() {
		var r storage.SubmissionRecord
		var correct int
		var createdAt string
		if err := rows.Scan(&r.ID, &r.UserID, &r.Problem, &r.Code, &r.Output, &correct, &createdAt); err != nil {
			return nil, err
		}
		r.Correct = correct != 0
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) ListRecordDates(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT substr(created_at, 1, 10) AS day
		FROM history WHERE user_id = ? ORDER BY day DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing record dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Scanner interface to work with both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(sc scanner) (*storage.User, error) {
	var u storage.User
	var isAdmin int
	var createdAt string
	err := sc.Scan(&u.ID, &u.StudentID, &u.Name, &isAdmin, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.IsAdmin = isAdmin != 0
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// IsDuplicateStudentID reports whether an error from CreateUser was
// caused by the student ID unique constraint.
func IsDuplicateStudentID(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: users.student_id")
}
