package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"orbtrap-lab/internal/domain/services"
	"orbtrap-lab/pkg/logger"
)

// SessionsHandler serves the read-only session inspection endpoints
type SessionsHandler struct {
	store  *services.SessionStore
	logger *logger.Logger
}

// NewSessionsHandler creates a new sessions handler
func NewSessionsHandler(store *services.SessionStore, log *logger.Logger) *SessionsHandler {
	return &SessionsHandler{
		store:  store,
		logger: log.WithComponent("sessions-handler"),
	}
}

// List handles GET /api/v1/honeypot/sessions
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries := h.store.Summaries()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"count":    len(summaries),
		"sessions": summaries,
	})
}

// Get handles GET /api/v1/honeypot/sessions/{sessionId}
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	sess := h.store.Get(id)
	if sess == nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	sess.Lock()
	summary := sess.Summarize()
	sess.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"session": summary,
	})
}
