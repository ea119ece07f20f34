package models

import "time"

// Sender identifies which party produced a message.
type Sender string

const (
	SenderScammer Sender = "scammer"
	SenderUser    Sender = "user"
)

// Message is a single exchange in a conversation. Immutable once appended
// to a session.
type Message struct {
	Sender    Sender `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NewMessage builds a message, stamping the current time if none is given.
func NewMessage(sender Sender, text, timestamp string) Message {
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return Message{Sender: sender, Text: text, Timestamp: timestamp}
}
