// Package api exposes the triage engine over a JSON HTTP surface. The
// transport stays thin: schema validation at the wire boundary, rate
// limiting, and error mapping; all conversation logic lives in the
// engine.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/supportflow-dev/supportflow/internal/engine"
	"github.com/supportflow-dev/supportflow/internal/observability"
	"github.com/supportflow-dev/supportflow/pkg/session"
)

const maxMessageLen = 4000

// ChatRequest is the wire format for a conversation turn.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// HistoryResponse is the wire format for the session history view.
type HistoryResponse struct {
	SessionID    string         `json:"session_id"`
	LastIntent   string         `json:"last_intent,omitempty"`
	Messages     []session.Turn `json:"messages"`
	MessageCount int            `json:"message_count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the triage HTTP API.
type Handler struct {
	engine  *engine.Engine
	store   session.Store
	limiter *rate.Limiter
	log     *slog.Logger
}

// New creates the API handler. limiter may be nil to disable rate
// limiting (tests, CLI).
func New(eng *engine.Engine, store session.Store, limiter *rate.Limiter, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{engine: eng, store: store, limiter: limiter, log: log}
}

// Router builds the chi route table.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/chat", h.handleChat)
	r.Get("/sessions/{sessionID}", h.handleHistory)
	r.Delete("/sessions/{sessionID}", h.handleDelete)
	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", observability.MetricsHandler())

	return r
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if len(req.Message) > maxMessageLen {
		writeError(w, http.StatusBadRequest, "message too long")
		return
	}

	resp, err := h.engine.Handle(r.Context(), req.SessionID, req.Message)
	if err != nil {
		if storeDown(err) {
			writeError(w, http.StatusServiceUnavailable, "session store temporarily unavailable")
			return
		}
		h.log.Error("chat turn failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "session store temporarily unavailable")
		return
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		SessionID:    sess.ID,
		LastIntent:   sess.LastIntent,
		Messages:     sess.History,
		MessageCount: len(sess.History),
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.store.Delete(r.Context(), sessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "session store temporarily unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "deleted",
		"session_id": sessionID,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func storeDown(err error) bool {
	return errors.Is(err, session.ErrUnavailable) || errors.Is(err, session.ErrStoreClosed)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
