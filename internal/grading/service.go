// Package grading orchestrates the exercise pipeline: ask the model for
// an exercise, run the learner's submission in the sandbox, ask the
// model for a verdict, and append the permanent history record.
package grading

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/codedrill/codedrill/internal/exercise"
	"github.com/codedrill/codedrill/internal/judge"
	"github.com/codedrill/codedrill/internal/llm"
	"github.com/codedrill/codedrill/internal/sandbox"
	"github.com/codedrill/codedrill/internal/session"
	"github.com/codedrill/codedrill/internal/storage"
)

// Fixed texts for the empty-submission short circuit. Blank code is
// neither executed nor shown to the judge.
const (
	EmptySubmissionOutput = "No code submitted."
	NotJudgedExplanation  = "not judged: the submission was empty, so it was neither executed nor graded"
)

// Progress phases reported during Submit, in order.
const (
	PhaseExecuting = "executing"
	PhaseJudging   = "judging"
	PhaseRecording = "recording"
)

// Options tune the two model calls.
type Options struct {
	GenerateTemperature float64
	JudgeTemperature    float64
	ModelTimeout        time.Duration
}

// DefaultOptions mirror the temperatures the service has always graded
// with; changing them changes grading outcomes.
func DefaultOptions() Options {
	return Options{
		GenerateTemperature: 0.7,
		JudgeTemperature:    0.5,
		ModelTimeout:        60 * time.Second,
	}
}

// Result is the outcome of one graded submission.
type Result struct {
	Exercise exercise.Exercise         `json:"exercise"`
	Code     string                    `json:"code"`
	Output   string                    `json:"output"`
	Judgment string                    `json:"judgment"`
	Correct  bool                      `json:"correct"`
	Record   *storage.SubmissionRecord `json:"record"`
}

// Service runs the pipeline. All state lives in the injected stores; the
// service itself is safe for concurrent use.
type Service struct {
	model    llm.Completer
	box      sandbox.Sandbox
	sessions session.Store
	store    storage.Store
	log      *zap.SugaredLogger
	opts     Options

	// locks serializes pipeline runs per session token, so a second
	// submission (or a generation swapping the exercise slot) waits for
	// the one in flight. Distinct sessions run concurrently. Entries are
	// reference counted and removed when the last holder leaves, so the
	// table is bounded by the number of runs in flight, not by the
	// number of tokens ever seen.
	locksMu sync.Mutex
	locks   map[string]*tokenLock
}

type tokenLock struct {
	mu   sync.Mutex
	refs int
}

// NewService wires the pipeline together.
func NewService(model llm.Completer, box sandbox.Sandbox, sessions session.Store, store storage.Store, log *zap.SugaredLogger, opts Options) *Service {
	if opts.GenerateTemperature == 0 {
		opts.GenerateTemperature = DefaultOptions().GenerateTemperature
	}
	if opts.JudgeTemperature == 0 {
		opts.JudgeTemperature = DefaultOptions().JudgeTemperature
	}
	if opts.ModelTimeout <= 0 {
		opts.ModelTimeout = DefaultOptions().ModelTimeout
	}
	return &Service{
		model:    model,
		box:      box,
		sessions: sessions,
		store:    store,
		log:      log,
		opts:     opts,
		locks:    make(map[string]*tokenLock),
	}
}

// lockSession acquires the per-token lock and returns its release func.
func (s *Service) lockSession(token string) func() {
	s.locksMu.Lock()
	l := s.locks[token]
	if l == nil {
		l = &tokenLock{}
		s.locks[token] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, token)
		}
		s.locksMu.Unlock()
	}
}

// Generate asks the model for a fresh exercise and stores it as the
// session's current one, replacing whatever was there.
func (s *Service) Generate(ctx context.Context, token, category, difficulty string) (*exercise.Exercise, error) {
	unlock := s.lockSession(token)
	defer unlock()

	prompt := exercise.BuildGenerationPrompt(category, difficulty)

	callCtx, cancel := context.WithTimeout(ctx, s.opts.ModelTimeout)
	defer cancel()

	raw, err := s.model.Complete(callCtx, prompt, s.opts.GenerateTemperature)
	if err != nil {
		return nil, err
	}

	ex := exercise.Parse(raw)
	if err := s.sessions.SetExercise(ctx, token, &ex); err != nil {
		return nil, fmt.Errorf("storing current exercise: %w", err)
	}

	s.log.Infow("exercise generated", "category", category, "difficulty", difficulty)
	return &ex, nil
}

// Submit grades the learner's code against the session's current
// exercise and appends the history record.
//
// Returns session.ErrNoExercise when nothing has been generated yet,
// *llm.ServiceError when the judge call failed, and *PersistenceError
// when the verdict could not be recorded.
func (s *Service) Submit(ctx context.Context, token, code string) (*Result, error) {
	return s.submit(ctx, token, code, nil)
}

// SubmitWithProgress is Submit with a phase callback, used by the
// websocket handler to stream pipeline progress.
func (s *Service) SubmitWithProgress(ctx context.Context, token, code string, progress func(phase string)) (*Result, error) {
	return s.submit(ctx, token, code, progress)
}

func (s *Service) submit(ctx context.Context, token, code string, progress func(string)) (*Result, error) {
	unlock := s.lockSession(token)
	defer unlock()

	report := func(phase string) {
		if progress != nil {
			progress(phase)
		}
	}

	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess.Exercise == nil {
		return nil, session.ErrNoExercise
	}
	ex := *sess.Exercise

	result := &Result{Exercise: ex, Code: code}

	if strings.TrimSpace(code) == "" {
		// Short circuit: no execution and no judge call.
		result.Output = EmptySubmissionOutput
		result.Judgment = NotJudgedExplanation
		result.Correct = false
	} else {
		report(PhaseExecuting)
		output, err := s.box.Run(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("sandbox: %w", err)
		}
		result.Output = output

		report(PhaseJudging)
		callCtx, cancel := context.WithTimeout(ctx, s.opts.ModelTimeout)
		defer cancel()

		judgment, err := s.model.Complete(callCtx, judge.BuildPrompt(ex, code, output), s.opts.JudgeTemperature)
		if err != nil {
			return nil, err
		}
		result.Judgment = judgment
		result.Correct = judge.Classify(judgment)
	}

	report(PhaseRecording)
	record := &storage.SubmissionRecord{
		UserID:  sess.UserID,
		Problem: ex.Problem,
		Code:    code,
		Output:  result.Output,
		Correct: result.Correct,
	}
	if err := s.store.AppendRecord(ctx, record); err != nil {
		// The learner must hear that their result was not recorded.
		return nil, &PersistenceError{Wrapped: err}
	}
	result.Record = record

	s.log.Infow("submission graded",
		"user_id", sess.UserID,
		"correct", result.Correct,
		"record_id", record.ID,
	)
	return result, nil
}
