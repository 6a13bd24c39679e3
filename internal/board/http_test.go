package board

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/s1natex/todolist-go/internal/tasks"
)

func newTestServer() (*chi.Mux, *tasks.InMemoryRepo) {
	repo := tasks.NewInMemoryRepo()
	r := chi.NewRouter()
	RegisterRoutes(r, New(repo), slog.New(slog.NewJSONHandler(io.Discard, nil)))
	return r, repo
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPostTasks_Success(t *testing.T) {
	r, _ := newTestServer()

	rec := do(r, http.MethodPost, "/tasks", `{"title":"Buy milk"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d, body=%s", rec.Code, rec.Body.String())
	}

	var got tasks.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if got.ID != 1 {
		t.Errorf("expected ID 1, got %d", got.ID)
	}
	if got.Title != "Buy milk" {
		t.Errorf("expected Title=Buy milk, got %q", got.Title)
	}
	if got.IsCompleted {
		t.Errorf("new tasks should default to IsCompleted=false")
	}
}

func TestPostTasks_EmptyTitleCreatesNothing(t *testing.T) {
	r, repo := newTestServer()

	rec := do(r, http.MethodPost, "/tasks", `{"title":""}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d, body=%s", rec.Code, rec.Body.String())
	}
	list, _ := repo.GetAllTasks(context.Background())
	if len(list) != 0 {
		t.Fatalf("expected no tasks, got %+v", list)
	}
}

func TestPostTasks_InvalidJSON(t *testing.T) {
	r, _ := newTestServer()

	rec := do(r, http.MethodPost, "/tasks", `{"title":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d, body=%s", rec.Code, rec.Body.String())
	}

	var errResp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to parse error JSON: %v", err)
	}
	if errResp["error"] != "invalid_json" {
		t.Errorf("expected error 'invalid_json', got %v", errResp["error"])
	}
}

func TestPostTasks_TitleTooLong(t *testing.T) {
	r, _ := newTestServer()

	body, _ := json.Marshal(map[string]string{"title": strings.Repeat("x", maxTitleLen+1)})
	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d, body=%s", rec.Code, rec.Body.String())
	}
}

func TestGetTasks_NewestFirst(t *testing.T) {
	r, repo := newTestServer()
	ctx := context.Background()
	_, _ = repo.InsertTask(ctx, tasks.Task{Title: "Buy milk"})
	_, _ = repo.InsertTask(ctx, tasks.Task{Title: "Pay bills"})

	rec := do(r, http.MethodGet, "/tasks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body=%s", rec.Code, rec.Body.String())
	}

	var list []tasks.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(list))
	}
	if list[0].ID != 2 || list[0].Title != "Pay bills" || list[1].ID != 1 {
		t.Errorf("unexpected order: %+v", list)
	}
}

func TestGetTasks_EmptyIsArray(t *testing.T) {
	r, _ := newTestServer()

	rec := do(r, http.MethodGet, "/tasks", "")
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("expected [], got %s", got)
	}
}

func TestGetTask_ByID(t *testing.T) {
	r, repo := newTestServer()
	seed, _ := repo.InsertTask(context.Background(), tasks.Task{Title: "seeded"})

	rec := do(r, http.MethodGet, "/tasks/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got tasks.Task
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got != seed {
		t.Fatalf("expected %+v, got %+v", seed, got)
	}

	if rec := do(r, http.MethodGet, "/tasks/2", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := do(r, http.MethodGet, "/tasks/abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPutTask_PartialUpdate(t *testing.T) {
	r, repo := newTestServer()
	seed, _ := repo.InsertTask(context.Background(), tasks.Task{Title: "write report"})

	rec := do(r, http.MethodPut, "/tasks/1", `{"is_completed":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", rec.Code, rec.Body.String())
	}
	got, _ := repo.GetTaskByID(context.Background(), seed.ID)
	if got.Title != "write report" || !got.IsCompleted {
		t.Fatalf("unexpected stored task: %+v", got)
	}

	if rec := do(r, http.MethodPut, "/tasks/9", `{"title":"x"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteTask(t *testing.T) {
	r, repo := newTestServer()
	_, _ = repo.InsertTask(context.Background(), tasks.Task{Title: "temp"})

	if rec := do(r, http.MethodDelete, "/tasks/1", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := do(r, http.MethodDelete, "/tasks/1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

type failingStore struct{ tasks.Store }

func (failingStore) GetAllTasks(context.Context) ([]tasks.Task, error) {
	return nil, errors.New("database disk image is malformed")
}

func TestGetTasks_StoreFailure(t *testing.T) {
	r := chi.NewRouter()
	RegisterRoutes(r, New(failingStore{}), slog.New(slog.NewJSONHandler(io.Discard, nil)))

	rec := do(r, http.MethodGet, "/tasks", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestPutTask_DeletedMidUpdate(t *testing.T) {
	store := newVanishingStore()
	r := chi.NewRouter()
	RegisterRoutes(r, New(store), slog.New(slog.NewJSONHandler(io.Discard, nil)))
	_, _ = store.InsertTask(context.Background(), tasks.Task{Title: "x"})

	rec := do(r, http.MethodPut, "/tasks/1", `{"is_completed":true}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when the task vanished, got %d body=%s", rec.Code, rec.Body.String())
	}
	list, _ := store.GetAllTasks(context.Background())
	if len(list) != 0 {
		t.Fatalf("expected empty store, got %+v", list)
	}
}

// slowStore delays reads past the router timeout.
type slowStore struct {
	*tasks.InMemoryRepo
	delay time.Duration
}

func (s slowStore) GetAllTasks(ctx context.Context) ([]tasks.Task, error) {
	time.Sleep(s.delay)
	return s.InMemoryRepo.GetAllTasks(ctx)
}

func TestGetTasks_TimeoutIsGatewayTimeout(t *testing.T) {
	var logs bytes.Buffer
	r := chi.NewRouter()
	r.Use(chimw.Timeout(20 * time.Millisecond))
	RegisterRoutes(r, New(slowStore{tasks.NewInMemoryRepo(), 200 * time.Millisecond}), slog.New(slog.NewJSONHandler(&logs, nil)))

	rec := do(r, http.MethodGet, "/tasks", "")
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d body=%s", rec.Code, rec.Body.String())
	}
	if strings.Contains(logs.String(), "store_error") {
		t.Fatalf("timeouts must not be logged as store errors: %s", logs.String())
	}
}

func TestGetTasks_ClientGone(t *testing.T) {
	var logs bytes.Buffer
	r := chi.NewRouter()
	RegisterRoutes(r, New(slowStore{tasks.NewInMemoryRepo(), 200 * time.Millisecond}), slog.New(slog.NewJSONHandler(&logs, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != statusClientClosedRequest {
		t.Fatalf("expected %d, got %d", statusClientClosedRequest, rec.Code)
	}
	if strings.Contains(logs.String(), "store_error") {
		t.Fatalf("canceled requests must not be logged as store errors: %s", logs.String())
	}
}
