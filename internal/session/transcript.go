package session

import "github.com/mmynk/splitchat/internal/models"

// Canned assistant messages.
const (
	MsgScanning      = "Scanning your receipt... this will just take a moment."
	MsgReceiptReady  = "I've analyzed the receipt! You can now tell me who ordered what. For example: \"Alice had the burger\" or \"Bob and Charlie shared the nachos\"."
	MsgParseFailed   = "Sorry, I couldn't parse that image. Please try uploading a clearer photo."
	MsgUpdateFailed  = "Sorry, I had trouble updating the bill. Can you try saying that differently?"
	MsgRateFailedFmt = "Sorry, I couldn't get an exchange rate for %s right now, so amounts are still shown in %s."
)

// Transcript is an ordered, append-only list of chat messages.
type Transcript struct {
	msgs []models.Message
}

// Append adds a message and returns it.
func (t *Transcript) Append(role models.Role, text string) models.Message {
	m := models.NewMessage(role, text)
	t.msgs = append(t.msgs, m)
	return m
}

// Messages returns a copy of the transcript.
func (t *Transcript) Messages() []models.Message {
	return append([]models.Message{}, t.msgs...)
}

// Len returns the number of messages.
func (t *Transcript) Len() int { return len(t.msgs) }
