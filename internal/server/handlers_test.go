package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/codedrill/codedrill/internal/config"
	"github.com/codedrill/codedrill/internal/exercise"
	"github.com/codedrill/codedrill/internal/grading"
	"github.com/codedrill/codedrill/internal/session"
	"github.com/codedrill/codedrill/internal/storage/sqlite"
)

// scriptedCompleter replies from a queue.
type scriptedCompleter struct {
	replies []string
}

func (c *scriptedCompleter) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	if len(c.replies) == 0 {
		return "", fmt.Errorf("scriptedCompleter: no reply queued")
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return reply, nil
}

// echoSandbox pretends every program prints "2".
type echoSandbox struct{}

func (echoSandbox) Run(ctx context.Context, code string) (string, error) {
	return "2", nil
}

const generationReply = `### Problem
Print the sum of 1 and 1.

### Reference Code
print(1 + 1)

### Reference Output
2`

func newTestServer(t *testing.T, model *scriptedCompleter) *httptest.Server {
	t.Helper()

	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	sessions := session.NewMemoryStore(time.Hour)
	t.Cleanup(func() { sessions.Close() })

	log := zap.NewNop().Sugar()
	svc := grading.NewService(model, echoSandbox{}, sessions, store, log, grading.DefaultOptions())

	srv := New(&config.Config{}, store, sessions, svc, nil, exercise.DefaultPresets(), log)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newCookieJar(t *testing.T) *cookiejar.Jar {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return jar
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

// loggedInClient registers and logs a learner in, returning a client
// carrying the session cookie.
func loggedInClient(t *testing.T, ts *httptest.Server, studentID, name string) *http.Client {
	t.Helper()

	jar := newCookieJar(t)
	client := &http.Client{Jar: jar}

	resp := postJSON(t, client, ts.URL+"/api/register", map[string]any{"student_id": studentID, "name": name})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}

	resp = postJSON(t, client, ts.URL+"/api/login", map[string]any{"student_id": studentID, "name": name})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	return client
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t, &scriptedCompleter{})
	client := &http.Client{}

	resp := postJSON(t, client, ts.URL+"/api/register", map[string]any{"student_id": "abc", "name": "Mina"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("non-numeric student_id: status = %d, want 400", resp.StatusCode)
	}

	resp = postJSON(t, client, ts.URL+"/api/register", map[string]any{"student_id": "20250001", "name": "Mina"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}

	// Same student ID again.
	resp = postJSON(t, client, ts.URL+"/api/register", map[string]any{"student_id": "20250001", "name": "Other"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate: status = %d, want 409", resp.StatusCode)
	}
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	ts := newTestServer(t, &scriptedCompleter{})

	resp := postJSON(t, &http.Client{}, ts.URL+"/api/login", map[string]any{"student_id": "999", "name": "Ghost"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestGenerateRequiresSession(t *testing.T) {
	ts := newTestServer(t, &scriptedCompleter{})

	resp := postJSON(t, &http.Client{}, ts.URL+"/api/exercises", map[string]any{"category": "loops"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestSubmitWithoutExerciseConflicts(t *testing.T) {
	ts := newTestServer(t, &scriptedCompleter{})
	client := loggedInClient(t, ts, "20250001", "Mina")

	resp := postJSON(t, client, ts.URL+"/api/submissions", map[string]any{"code": "print(1)"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestGenerateSubmitHistoryFlow(t *testing.T) {
	model := &scriptedCompleter{replies: []string{
		generationReply,
		"correct. Output matches.",
	}}
	ts := newTestServer(t, model)
	client := loggedInClient(t, ts, "20250001", "Mina")

	// Generate: the learner sees the problem but not the solution.
	resp := postJSON(t, client, ts.URL+"/api/exercises", map[string]any{"category": "loops", "difficulty": "beginner"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d", resp.StatusCode)
	}
	gen := decodeBody[map[string]any](t, resp)
	if gen["problem"] != "Print the sum of 1 and 1." {
		t.Errorf("problem = %q", gen["problem"])
	}
	if _, leaked := gen["reference_code"]; leaked {
		t.Error("generate response leaks the reference solution")
	}

	// Submit.
	resp = postJSON(t, client, ts.URL+"/api/submissions", map[string]any{"code": "print(1+1)"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d", resp.StatusCode)
	}
	result := decodeBody[grading.Result](t, resp)
	if result.Output != "2" || !result.Correct {
		t.Errorf("result = %+v", result)
	}

	// History has exactly the one record.
	resp, err := client.Get(ts.URL + "/api/history")
	if err != nil {
		t.Fatal(err)
	}
	hist := decodeBody[map[string]any](t, resp)
	if hist["total"].(float64) != 1 || hist["correct"].(float64) != 1 {
		t.Errorf("history = %v", hist)
	}
}

func TestAdminRoutesForbiddenForLearners(t *testing.T) {
	ts := newTestServer(t, &scriptedCompleter{})
	client := loggedInClient(t, ts, "20250001", "Mina")

	resp, err := client.Get(ts.URL + "/api/admin/users")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestAdminUserHistory(t *testing.T) {
	model := &scriptedCompleter{replies: []string{generationReply, "correct"}}
	ts := newTestServer(t, model)

	learner := loggedInClient(t, ts, "20250001", "Mina")
	postJSON(t, learner, ts.URL+"/api/exercises", map[string]any{}).Body.Close()
	postJSON(t, learner, ts.URL+"/api/submissions", map[string]any{"code": "print(1+1)"}).Body.Close()

	// Register an admin and log in with the admin flag.
	admin := &http.Client{Jar: newCookieJar(t)}
	postJSON(t, admin, ts.URL+"/api/register", map[string]any{"student_id": "1", "name": "Root", "admin": true}).Body.Close()
	resp := postJSON(t, admin, ts.URL+"/api/login", map[string]any{"student_id": "1", "name": "Root", "admin": true})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin login status = %d", resp.StatusCode)
	}

	resp, err := admin.Get(ts.URL + "/api/admin/users")
	if err != nil {
		t.Fatal(err)
	}
	users := decodeBody[[]map[string]any](t, resp)
	if len(users) != 1 {
		t.Fatalf("got %d learners, want 1", len(users))
	}
	userID := int64(users[0]["id"].(float64))

	resp, err = admin.Get(fmt.Sprintf("%s/api/admin/users/%d/dates", ts.URL, userID))
	if err != nil {
		t.Fatal(err)
	}
	dates := decodeBody[map[string]any](t, resp)
	if len(dates["dates"].([]any)) != 1 {
		t.Errorf("dates = %v", dates)
	}

	today := time.Now().UTC().Format("2006-01-02")
	resp, err = admin.Get(fmt.Sprintf("%s/api/admin/users/%d/history?date=%s", ts.URL, userID, today))
	if err != nil {
		t.Fatal(err)
	}
	hist := decodeBody[map[string]any](t, resp)
	if hist["total"].(float64) != 1 {
		t.Errorf("admin history = %v", hist)
	}
}

func TestHealthAndCategories(t *testing.T) {
	ts := newTestServer(t, &scriptedCompleter{})

	resp, err := http.Get(ts.URL + "/api/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/categories")
	if err != nil {
		t.Fatal(err)
	}
	presets := decodeBody[[]exercise.Preset](t, resp)
	if len(presets) == 0 {
		t.Error("expected presets")
	}
}
