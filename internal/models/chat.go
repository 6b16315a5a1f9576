package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a transcript message.
type Role string

const (
	// RoleUser marks text typed (or gestured) by a person.
	RoleUser Role = "user"
	// RoleAssistant marks system and interpreter replies.
	RoleAssistant Role = "assistant"
)

// Message is one entry in a session's chat transcript.
type Message struct {
	// ID is the unique identifier for the message (UUID format).
	ID string `json:"id"`

	// Role is the author of the message.
	Role Role `json:"role"`

	// Text is the message body, stored verbatim.
	Text string `json:"text"`

	// Timestamp is when the message was appended.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with a fresh ID and the current time.
func NewMessage(role Role, text string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// Image is one page of a receipt submission.
type Image struct {
	// Data is the raw image bytes.
	Data []byte `json:"data"`

	// ContentType is the MIME type (e.g., "image/jpeg"). May be empty, in which
	// case it is sniffed from Data.
	ContentType string `json:"content_type"`
}
