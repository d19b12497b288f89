// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/pugil/internal/domain/model"
)

// SessionDependencies defines the interface for session lifecycle and
// per-frame processing operations.
type SessionDependencies interface {
	CreateSession(ctx context.Context) (string, error)
	CloseSession(ctx context.Context, id string) error
	Step(ctx context.Context, id string, frame model.Frame) (model.StepResult, error)
	SessionStats(ctx context.Context, id string) (model.StepResult, error)
}

// SessionsHandler handles session lifecycle and frame requests.
type SessionsHandler struct {
	deps   SessionDependencies
	stream http.Handler
}

// NewSessionsHandler creates a new sessions handler. stream may be nil when
// no websocket transport is mounted; the stream sub-route then 404s.
func NewSessionsHandler(deps SessionDependencies, stream http.Handler) *SessionsHandler {
	return &SessionsHandler{deps: deps, stream: stream}
}

// HandleCreateSession handles POST /v1/sessions requests.
func (h *SessionsHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	id, err := h.deps.CreateSession(r.Context())
	if err != nil {
		if isCapacity(err) {
			writeError(w, http.StatusTooManyRequests, "session_limit", NewKind(op, ErrSessionLimit))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{ID: id})
}

// HandleSession routes /v1/sessions/{id} and its sub-resources.
func (h *SessionsHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.session"
	// Extract path parameters after /v1/sessions/
	rest := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	switch {
	case sub == "" && r.Method == http.MethodDelete:
		h.handleClose(w, r, id)
	case sub == "frames" && r.Method == http.MethodPost:
		h.handleStep(w, r, id)
	case sub == "stats" && r.Method == http.MethodGet:
		h.handleStats(w, r, id)
	case sub == "stream" && h.stream != nil:
		h.stream.ServeHTTP(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handleClose ends a session and flushes its final score snapshot.
func (h *SessionsHandler) handleClose(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.deps.CloseSession(r.Context(), id); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStep feeds one pose frame through the session engine. This is the
// single-shot path for clients that do not hold a stream open.
func (h *SessionsHandler) handleStep(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.step"
	var frame model.Frame
	if err := json.NewDecoder(r.Body).Decode(&frame); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Step(r.Context(), id, frame)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleStats returns the session's current cumulative state without
// advancing it.
func (h *SessionsHandler) handleStats(w http.ResponseWriter, r *http.Request, id string) {
	res, err := h.deps.SessionStats(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
