// Package server exposes the grading pipeline as a JSON HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/codedrill/codedrill/internal/config"
	"github.com/codedrill/codedrill/internal/exercise"
	"github.com/codedrill/codedrill/internal/grading"
	"github.com/codedrill/codedrill/internal/llm"
	"github.com/codedrill/codedrill/internal/session"
	"github.com/codedrill/codedrill/internal/storage"
)

// ModelLister is the optional capability behind GET /api/models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]llm.ModelInfo, error)
}

// Server is the HTTP server for the CodeDrill API.
type Server struct {
	cfg      *config.Config
	store    storage.Store
	sessions session.Store
	svc      *grading.Service
	models   ModelLister
	presets  []exercise.Preset
	log      *zap.SugaredLogger
	router   chi.Router
	http     *http.Server
}

// New creates a new Server. models may be nil when the provider cannot
// enumerate its models.
func New(cfg *config.Config, store storage.Store, sessions session.Store, svc *grading.Service, models ModelLister, presets []exercise.Preset, log *zap.SugaredLogger) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		sessions: sessions,
		svc:      svc,
		models:   models,
		presets:  presets,
		log:      log,
		router:   chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Use(jsonContentType)

		r.Get("/healthz", s.handleHealth)
		r.Get("/categories", s.handleListCategories)
		r.Get("/models", s.handleListModels)

		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)

		// Authenticated learner routes
		r.Group(func(r chi.Router) {
			r.Use(s.withSession)

			r.Post("/logout", s.handleLogout)
			r.Get("/me", s.handleMe)

			r.Post("/exercises", s.handleGenerate)
			r.Post("/submissions", s.handleSubmit)
			r.Get("/submissions/ws", s.handleSubmitWS)

			r.Get("/history", s.handleHistory)
			r.Get("/history/export", s.handleHistoryExport)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(s.withSession, s.adminOnly)

			r.Get("/admin/users", s.handleAdminUsers)
			r.Get("/admin/users/{id}/dates", s.handleAdminUserDates)
			r.Get("/admin/users/{id}/history", s.handleAdminUserHistory)
		})
	})
}

// jsonContentType sets Content-Type to application/json for API routes.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// logRequests writes one structured line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Handler returns the assembled router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	s.log.Infow("server starting", "addr", addr)
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}
