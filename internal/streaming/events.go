package streaming

import (
	"time"

	"github.com/google/uuid"

	"orbtrap-lab/internal/domain/models"
)

// EventType represents the type of honeypot event
type EventType string

const (
	EventTypeScamDetected     EventType = "scam_detected"
	EventTypeSessionConcluded EventType = "session_concluded"
	EventTypeReportDispatched EventType = "report_dispatched"
)

// HoneypotEvent represents a real-time honeypot update event
type HoneypotEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	SessionID  string       `json:"session_id"`
	Stage      models.Stage `json:"stage,omitempty"`
	Confidence float64      `json:"confidence,omitempty"`
	Messages   int          `json:"messages,omitempty"`
	IntelCount int          `json:"intel_count,omitempty"`

	// Report delivery outcome, set on report_dispatched events
	Delivered bool   `json:"delivered,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewSessionEvent creates an event snapshot from a session. Caller must
// hold the session lock.
func NewSessionEvent(eventType EventType, sess *models.Session) *HoneypotEvent {
	return &HoneypotEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now(),
		SessionID:  sess.ID,
		Stage:      sess.Stage,
		Confidence: sess.ScamConfidence,
		Messages:   sess.MessageCount(),
		IntelCount: sess.Intelligence.IdentifierCount(),
	}
}

// NewReportEvent creates a report delivery outcome event
func NewReportEvent(sessionID string, delivered bool, deliveryErr error) *HoneypotEvent {
	event := &HoneypotEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeReportDispatched,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Delivered: delivered,
	}
	if deliveryErr != nil {
		event.Error = deliveryErr.Error()
	}
	return event
}
