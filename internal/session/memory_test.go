package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codedrill/codedrill/internal/exercise"
)

func testMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	m := NewMemoryStore(time.Hour)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestMemoryStoreCreateGet(t *testing.T) {
	m := testMemoryStore(t)
	ctx := context.Background()

	sess := &Session{Token: "tok-1", UserID: 7, StudentID: "20250001", Name: "Mina"}
	if err := m.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := m.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.UserID != 7 || got.StudentID != "20250001" {
		t.Errorf("got %+v", got)
	}
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	m := testMemoryStore(t)

	_, err := m.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreExerciseSlot(t *testing.T) {
	m := testMemoryStore(t)
	ctx := context.Background()

	m.Create(ctx, &Session{Token: "tok-1", UserID: 1})

	// No exercise generated yet: reachable non-error state.
	_, err := m.CurrentExercise(ctx, "tok-1")
	if !errors.Is(err, ErrNoExercise) {
		t.Fatalf("err = %v, want ErrNoExercise", err)
	}

	ex := &exercise.Exercise{Problem: "p1", ReferenceCode: "c1", ReferenceOutput: "o1"}
	if err := m.SetExercise(ctx, "tok-1", ex); err != nil {
		t.Fatalf("SetExercise: %v", err)
	}

	got, err := m.CurrentExercise(ctx, "tok-1")
	if err != nil {
		t.Fatalf("CurrentExercise: %v", err)
	}
	if got.Problem != "p1" {
		t.Errorf("problem = %q", got.Problem)
	}

	// A second generation overwrites the slot.
	m.SetExercise(ctx, "tok-1", &exercise.Exercise{Problem: "p2"})
	got, _ = m.CurrentExercise(ctx, "tok-1")
	if got.Problem != "p2" {
		t.Errorf("problem = %q, want p2", got.Problem)
	}
}

func TestMemoryStoreSlotsAreIndependent(t *testing.T) {
	m := testMemoryStore(t)
	ctx := context.Background()

	m.Create(ctx, &Session{Token: "a", UserID: 1})
	m.Create(ctx, &Session{Token: "b", UserID: 2})

	m.SetExercise(ctx, "a", &exercise.Exercise{Problem: "for learner a"})

	if _, err := m.CurrentExercise(ctx, "b"); !errors.Is(err, ErrNoExercise) {
		t.Errorf("learner b sees learner a's exercise: %v", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	m := testMemoryStore(t)
	ctx := context.Background()

	m.Create(ctx, &Session{Token: "tok-1"})
	if err := m.Delete(ctx, "tok-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := m.Get(ctx, "tok-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	m := NewMemoryStore(time.Millisecond)
	defer m.Close()
	ctx := context.Background()

	m.Create(ctx, &Session{Token: "tok-1"})
	time.Sleep(5 * time.Millisecond)

	if _, err := m.Get(ctx, "tok-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after expiry", err)
	}
}
