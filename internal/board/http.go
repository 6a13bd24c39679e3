package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/s1natex/todolist-go/internal/tasks"
)

const (
	maxTitleLen = 200

	// nginx's non-standard code for a client that went away mid-request
	statusClientClosedRequest = 499
)

type createTaskRequest struct {
	Title string `json:"title"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	IsCompleted *bool   `json:"is_completed"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errResponse struct {
	Error   string       `json:"error"`
	Details []fieldError `json:"details,omitempty"`
}

type handler struct {
	board  *Board
	logger *slog.Logger
}

func RegisterRoutes(r chi.Router, b *Board, logger *slog.Logger) {
	h := &handler{board: b, logger: logger}
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.listTasks)
		r.Post("/", h.createTask)
		r.Get("/{id}", h.getTask)
		r.Put("/{id}", h.updateTask)
		r.Delete("/{id}", h.deleteTask)
	})
}

func (h *handler) listTasks(w http.ResponseWriter, r *http.Request) {
	list, err := h.board.Load(r.Context())
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_json"})
		return
	}
	if vErrs := validateTitle(req.Title); len(vErrs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errResponse{
			Error:   "validation_error",
			Details: vErrs,
		})
		return
	}

	t, err := h.board.Submit(r.Context(), req.Title)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if t == nil {
		// empty title: nothing was created
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *handler) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	t, err := h.board.Get(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_json"})
		return
	}
	if req.Title != nil {
		if vErrs := validateTitle(*req.Title); len(vErrs) > 0 {
			writeJSON(w, http.StatusUnprocessableEntity, errResponse{
				Error:   "validation_error",
				Details: vErrs,
			})
			return
		}
	}

	t, err := h.board.Apply(r.Context(), id, Edit{Title: req.Title, IsCompleted: req.IsCompleted})
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	if err := h.board.Remove(r.Context(), id); err != nil {
		h.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errResponse{
			Error:   "invalid_id",
			Details: []fieldError{{Field: "id", Message: "id must be a positive integer"}},
		})
		return 0, false
	}
	return id, true
}

func (h *handler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tasks.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errResponse{Error: "not_found"})
	case errors.Is(err, tasks.ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_id"})
	case errors.Is(err, context.DeadlineExceeded):
		// the store call keeps running; only the wait timed out
		writeJSON(w, http.StatusGatewayTimeout, errResponse{Error: "timeout"})
	case errors.Is(err, context.Canceled):
		writeJSON(w, statusClientClosedRequest, errResponse{Error: "canceled"})
	default:
		h.logger.ErrorContext(r.Context(), "store_error",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, errResponse{Error: "unexpected_error"})
	}
}

// validateTitle only bounds length; an empty title is a valid "create nothing".
func validateTitle(title string) []fieldError {
	var errs []fieldError
	if l := len(title); l > maxTitleLen {
		errs = append(errs, fieldError{
			Field:   "title",
			Message: fmt.Sprintf("title must be at most %d characters", maxTitleLen),
		})
	}
	return errs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
