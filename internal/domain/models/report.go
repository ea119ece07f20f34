package models

import "strings"

// Report is the final summary delivered to the external evaluation sink
// once per concluded session.
type Report struct {
	SessionID              string              `json:"sessionId"`
	ScamDetected           bool                `json:"scamDetected"`
	TotalMessagesExchanged int                 `json:"totalMessagesExchanged"`
	ExtractedIntelligence  IntelligenceSummary `json:"extractedIntelligence"`
	AgentNotes             string              `json:"agentNotes"`
}

// BuildReport assembles the report from a session. Caller must hold the
// session lock.
func BuildReport(s *Session) *Report {
	return &Report{
		SessionID:              s.ID,
		ScamDetected:           s.ScamDetected,
		TotalMessagesExchanged: s.MessageCount(),
		ExtractedIntelligence:  s.Intelligence.Summary(),
		AgentNotes:             strings.Join(s.Notes, " | "),
	}
}
