package models

import (
	"sync"
	"time"
)

// Stage is the session's position in the four-step engagement script.
type Stage string

const (
	StageInitial    Stage = "initial"
	StageEngaged    Stage = "engaged"
	StageExtraction Stage = "extraction"
	StageClosing    Stage = "closing"
)

// stageRank orders stages for the forward-only transition guard.
var stageRank = map[Stage]int{
	StageInitial:    0,
	StageEngaged:    1,
	StageExtraction: 2,
	StageClosing:    3,
}

// Session is the durable state of one exchange with a single counterparty.
// All mutation must happen while holding the session lock; the accessors
// below enforce the monotonicity invariants (stage forward-only, confidence
// non-decreasing, reported flips once, sets and logs append-only).
type Session struct {
	mu sync.Mutex

	ID             string
	Messages       []Message
	ScamDetected   bool
	ScamConfidence float64
	Intelligence   *Intelligence
	Notes          []string
	Stage          Stage
	Reported       bool

	CreatedAt  time.Time
	ReportedAt time.Time
}

// NewSession creates a session in the initial stage.
func NewSession(id string) *Session {
	return &Session{
		ID:           id,
		Intelligence: NewIntelligence(),
		Stage:        StageInitial,
		CreatedAt:    time.Now(),
	}
}

// Lock serializes a full turn against this session. Two concurrent requests
// for the same id must not interleave their read-modify-write.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the turn lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// AppendMessage adds a message to the transcript.
func (s *Session) AppendMessage(m Message) {
	s.Messages = append(s.Messages, m)
}

// MessageCount returns the transcript length.
func (s *Session) MessageCount() int {
	return len(s.Messages)
}

// AddNote appends an audit-trail entry. Notes are never removed.
func (s *Session) AddNote(note string) {
	s.Notes = append(s.Notes, note)
}

// RaiseDetection records a scam classification. The confidence only moves
// up and scamDetected never reverts to false. Returns true if this call
// raised the stored confidence.
func (s *Session) RaiseDetection(confidence float64) bool {
	if confidence <= s.ScamConfidence && s.ScamDetected {
		return false
	}
	if confidence > s.ScamConfidence {
		s.ScamConfidence = confidence
		s.ScamDetected = true
		return true
	}
	return false
}

// AdvanceStage moves the session forward. Backward transitions are ignored,
// so a stale caller can never regress the script.
func (s *Session) AdvanceStage(next Stage) bool {
	if stageRank[next] <= stageRank[s.Stage] {
		return false
	}
	s.Stage = next
	return true
}

// MarkReported flips the report guard. Returns false if the session was
// already reported; callers must treat that as "do not dispatch again".
func (s *Session) MarkReported() bool {
	if s.Reported {
		return false
	}
	s.Reported = true
	s.ReportedAt = time.Now()
	return true
}

// Concluded reports whether the session is eligible for final reporting:
// the script reached closing or the transcript hit the message ceiling.
func (s *Session) Concluded(conversationCap int) bool {
	return s.Stage == StageClosing || s.MessageCount() >= conversationCap
}

// SessionSummary is the read-only inspection view served over HTTP.
type SessionSummary struct {
	SessionID      string              `json:"sessionId"`
	Stage          Stage               `json:"stage"`
	ScamDetected   bool                `json:"scamDetected"`
	ScamConfidence float64             `json:"scamConfidence"`
	MessageCount   int                 `json:"messageCount"`
	Intelligence   IntelligenceSummary `json:"intelligence"`
	Notes          []string            `json:"notes"`
	Reported       bool                `json:"reported"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// Summarize snapshots the session for inspection endpoints. Caller must
// hold the session lock.
func (s *Session) Summarize() SessionSummary {
	notes := make([]string, len(s.Notes))
	copy(notes, s.Notes)
	return SessionSummary{
		SessionID:      s.ID,
		Stage:          s.Stage,
		ScamDetected:   s.ScamDetected,
		ScamConfidence: s.ScamConfidence,
		MessageCount:   s.MessageCount(),
		Intelligence:   s.Intelligence.Summary(),
		Notes:          notes,
		Reported:       s.Reported,
		CreatedAt:      s.CreatedAt,
	}
}
