package handlers

import (
	"encoding/json"
	"net/http"

	"orbtrap-lab/internal/domain/models"
	"orbtrap-lab/internal/domain/services"
	"orbtrap-lab/pkg/logger"
)

// HoneypotHandler handles the conversation endpoints
type HoneypotHandler struct {
	engine *services.HoneypotEngine
	logger *logger.Logger
}

// NewHoneypotHandler creates a new honeypot handler
func NewHoneypotHandler(engine *services.HoneypotEngine, log *logger.Logger) *HoneypotHandler {
	return &HoneypotHandler{
		engine: engine,
		logger: log.WithComponent("honeypot-handler"),
	}
}

// messagePayload mirrors one message on the wire
type messagePayload struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp,omitempty"`
}

// MessageRequest is the request body for an inbound scammer message.
// Metadata is accepted and ignored.
type MessageRequest struct {
	SessionID           string           `json:"sessionId"`
	Message             *messagePayload  `json:"message"`
	ConversationHistory []messagePayload `json:"conversationHistory,omitempty"`
	Metadata            map[string]any   `json:"metadata,omitempty"`
}

// MessageResponse is the reply envelope
type MessageResponse struct {
	Status string `json:"status"`
	Reply  string `json:"reply"`
}

// Message handles POST /api/v1/honeypot/message - one conversation turn
func (h *HoneypotHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("invalid request body")
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if req.Message == nil {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.Message.Text == "" {
		writeError(w, http.StatusBadRequest, "message.text is required")
		return
	}
	if req.Message.Sender == "" {
		writeError(w, http.StatusBadRequest, "message.sender is required")
		return
	}

	inbound := models.NewMessage(models.Sender(req.Message.Sender), req.Message.Text, req.Message.Timestamp)

	history := make([]models.Message, 0, len(req.ConversationHistory))
	for _, m := range req.ConversationHistory {
		if m.Text == "" {
			continue
		}
		history = append(history, models.NewMessage(models.Sender(m.Sender), m.Text, m.Timestamp))
	}

	reply, err := h.engine.HandleMessage(r.Context(), req.SessionID, inbound, history)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("failed to process message")
		writeError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Status: "success", Reply: reply})
}

// CallbackRequest is the request body for a manual report trigger
type CallbackRequest struct {
	SessionID string `json:"sessionId"`
}

// Callback handles POST /api/v1/honeypot/callback - forces report dispatch
// for a session, the recovery path when automatic dispatch failed
func (h *HoneypotHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req CallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	report, err := h.engine.TriggerReport(r.Context(), req.SessionID)
	if err != nil {
		if h.engine.Store().Get(req.SessionID) == nil {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		h.logger.Warn().Err(err).Str("session_id", req.SessionID).Msg("manual report dispatch failed")
		writeError(w, http.StatusBadGateway, "Report delivery failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"report": report,
	})
}
