package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codedrill/codedrill/internal/config"
	"github.com/codedrill/codedrill/internal/grading"
	"github.com/codedrill/codedrill/internal/sandbox"
	"github.com/codedrill/codedrill/internal/session"
	"github.com/codedrill/codedrill/internal/storage"
)

// newSessionStore picks the session backend from config.
func newSessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	switch cfg.Sessions.Backend {
	case "", "memory":
		return session.NewMemoryStore(cfg.Sessions.TTL), nil
	case "redis":
		return session.NewRedisStore(ctx, cfg.Sessions.RedisAddr, cfg.Sessions.RedisPassword, cfg.Sessions.RedisDB, cfg.Sessions.TTL)
	default:
		return nil, fmt.Errorf("unknown session backend: %s", cfg.Sessions.Backend)
	}
}

// newSandbox picks the execution backend from config. The process
// backend is for machines without Docker; it offers weaker isolation.
func newSandbox(cfg *config.Config) sandbox.Sandbox {
	policy := sandbox.DefaultPolicy()
	if cfg.Sandbox.MaxMemory != "" {
		policy.MaxMemory = cfg.Sandbox.MaxMemory
	}
	if cfg.Sandbox.Timeout > 0 {
		policy.MaxTimeout = cfg.Sandbox.Timeout
	}

	if cfg.Sandbox.Backend == "process" {
		return sandbox.NewProcessSandbox(cfg.Sandbox.Python, policy)
	}

	image := cfg.Sandbox.Image
	if image == "" {
		image = policy.Images[0]
	}
	return sandbox.NewDockerSandbox(image, policy)
}

func gradingOptions(cfg *config.Config) grading.Options {
	opts := grading.DefaultOptions()
	if cfg.Grading.GenerateTemperature > 0 {
		opts.GenerateTemperature = cfg.Grading.GenerateTemperature
	}
	if cfg.Grading.JudgeTemperature > 0 {
		opts.JudgeTemperature = cfg.Grading.JudgeTemperature
	}
	if cfg.Grading.ModelTimeout > 0 {
		opts.ModelTimeout = cfg.Grading.ModelTimeout
	}
	return opts
}

// localSession bootstraps a session for single-user commands (practice,
// mcp). The local learner is created in storage on first use so history
// accumulates across runs.
func localSession(ctx context.Context, store storage.Store, sessions session.Store) (*session.Session, error) {
	user, err := store.FindUser(ctx, "0", "local")
	if errors.Is(err, storage.ErrNotFound) {
		user = &storage.User{StudentID: "0", Name: "local"}
		if err := store.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("creating local user: %w", err)
		}
	} else if err != nil {
		return nil, err
	}

	sess := &session.Session{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		StudentID: user.StudentID,
		Name:      user.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}
