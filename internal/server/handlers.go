package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/codedrill/codedrill/internal/grading"
	"github.com/codedrill/codedrill/internal/llm"
	"github.com/codedrill/codedrill/internal/session"
	"github.com/codedrill/codedrill/internal/storage"
	"github.com/codedrill/codedrill/internal/storage/sqlite"
)

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// --- Health / metadata ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.presets)
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	if s.models == nil {
		writeJSON(w, http.StatusOK, []llm.ModelInfo{})
		return
	}
	models, err := s.models.ListModels(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("querying models: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, models)
}

// --- Auth ---

type registerRequest struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Admin     bool   `json:"admin"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Name = strings.TrimSpace(req.Name)
	if req.StudentID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "student_id and name are required")
		return
	}
	if _, err := strconv.Atoi(req.StudentID); err != nil {
		writeError(w, http.StatusBadRequest, "student_id must be numeric")
		return
	}

	user := &storage.User{StudentID: req.StudentID, Name: req.Name, IsAdmin: req.Admin}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		if sqlite.IsDuplicateStudentID(err) {
			writeError(w, http.StatusConflict, "student_id already registered")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Admin     bool   `json:"admin"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	user, err := s.store.FindUser(r.Context(), strings.TrimSpace(req.StudentID), strings.TrimSpace(req.Name))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unknown student_id or name")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	if req.Admin && !user.IsAdmin {
		writeError(w, http.StatusForbidden, "not an admin account")
		return
	}

	sess := &session.Session{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		StudentID: user.StudentID,
		Name:      user.Name,
		IsAdmin:   user.IsAdmin,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Create(r.Context(), sess); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	setSessionCookie(w, sess.Token)
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), sessionFrom(r).Token); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":    sess.UserID,
		"student_id": sess.StudentID,
		"name":       sess.Name,
		"is_admin":   sess.IsAdmin,
	})
}

// --- Exercise & submission ---

type generateRequest struct {
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

// generateResponse deliberately omits the reference solution; the
// learner only sees the problem.
type generateResponse struct {
	Problem    string `json:"problem"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	ex, err := s.svc.Generate(r.Context(), sessionFrom(r).Token, req.Category, req.Difficulty)
	if err != nil {
		s.writeGradingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Problem:    ex.Problem,
		Category:   req.Category,
		Difficulty: req.Difficulty,
	})
}

type submitRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	result, err := s.svc.Submit(r.Context(), sessionFrom(r).Token, req.Code)
	if err != nil {
		s.writeGradingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// writeGradingError maps pipeline failures onto status codes. Service
// and persistence failures are explicit so the learner knows whether a
// result was recorded.
func (s *Server) writeGradingError(w http.ResponseWriter, err error) {
	var serviceErr *llm.ServiceError
	var persistErr *grading.PersistenceError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNoExercise):
		status = http.StatusConflict
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusUnauthorized
	case errors.As(err, &serviceErr):
		status = http.StatusBadGateway
		s.log.Errorw("model call failed", "error", err)
	case errors.As(err, &persistErr):
		s.log.Errorw("record write failed", "error", err)
	default:
		s.log.Errorw("grading failed", "error", err)
	}
	writeError(w, status, gradingErrorMessage(err))
}

// gradingErrorMessage is the user-facing text for a pipeline failure,
// shared with the websocket handler.
func gradingErrorMessage(err error) string {
	var serviceErr *llm.ServiceError
	var persistErr *grading.PersistenceError

	switch {
	case errors.Is(err, session.ErrNoExercise):
		return "no current exercise; generate one first"
	case errors.Is(err, session.ErrNotFound):
		return "session expired"
	case errors.As(err, &serviceErr):
		return "the grading model is unavailable; please try again"
	case errors.As(err, &persistErr):
		return "your submission was judged but the result was not recorded"
	default:
		return err.Error()
	}
}

// --- History ---

type historyResponse struct {
	Records []storage.SubmissionRecord `json:"records"`
	Total   int                        `json:"total"`
	Correct int                        `json:"correct"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRecordFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.store.ListRecords(r.Context(), sessionFrom(r).UserID, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, buildHistoryResponse(records))
}

func buildHistoryResponse(records []storage.SubmissionRecord) historyResponse {
	resp := historyResponse{Records: records, Total: len(records)}
	if resp.Records == nil {
		resp.Records = []storage.SubmissionRecord{}
	}
	for _, rec := range records {
		if rec.Correct {
			resp.Correct++
		}
	}
	return resp
}

func parseRecordFilter(r *http.Request) (storage.RecordFilter, error) {
	var f storage.RecordFilter

	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return f, fmt.Errorf("invalid from date %q", from)
		}
		f.From = t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return f, fmt.Errorf("invalid to date %q", to)
		}
		// Inclusive end date.
		f.To = t.Add(24 * time.Hour)
	}
	if verdict := r.URL.Query().Get("verdict"); verdict != "" {
		v, err := strconv.ParseBool(verdict)
		if err != nil {
			return f, fmt.Errorf("invalid verdict %q", verdict)
		}
		f.Verdict = &v
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			f.Limit = n
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			f.Offset = n
		}
	}
	return f, nil
}

func (s *Server) handleHistoryExport(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	user, err := s.store.GetUser(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	records, err := s.store.ListRecords(r.Context(), sess.UserID, storage.RecordFilter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="history.md"`)
		fmt.Fprint(w, storage.ExportMarkdown(user, records))
	case "json":
		data, err := storage.ExportJSON(user, records)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Write(data)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
	}
}

// --- Admin ---

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListLearners(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if users == nil {
		users = []storage.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) adminUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleAdminUserDates(w http.ResponseWriter, r *http.Request) {
	id, ok := s.adminUserID(w, r)
	if !ok {
		return
	}

	user, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	dates, err := s.store.ListRecordDates(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if dates == nil {
		dates = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":  user,
		"dates": dates,
	})
}

func (s *Server) handleAdminUserHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.adminUserID(w, r)
	if !ok {
		return
	}

	var filter storage.RecordFilter
	if date := r.URL.Query().Get("date"); date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid date %q", date))
			return
		}
		filter.From = day
		filter.To = day.Add(24 * time.Hour)
	}

	records, err := s.store.ListRecords(r.Context(), id, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, buildHistoryResponse(records))
}
