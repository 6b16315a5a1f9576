// Package api defines the wire messages of the splitchat.v1 service.
// Messages are plain structs encoded as JSON.
package api

// CreateSessionRequest starts a new splitting session.
type CreateSessionRequest struct{}

// GetSessionRequest fetches the current view of a session.
type GetSessionRequest struct {
	SessionID string `json:"session_id"`
}

// Upload is one receipt page. Data is standard base64, optionally as a data
// URL ("data:image/png;base64,...").
type Upload struct {
	Name        string `json:"name,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Data        string `json:"data"`
}

// SubmitReceiptRequest replaces the session's receipt with a new one.
type SubmitReceiptRequest struct {
	SessionID string   `json:"session_id"`
	Pages     []Upload `json:"pages"`
}

// SendMessageRequest sends a free-text chat command.
type SendMessageRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// DropItemRequest assigns an item to a person via drag and drop.
type DropItemRequest struct {
	SessionID string `json:"session_id"`
	ItemName  string `json:"item_name"`
	Person    string `json:"person"`
}

// SetCurrencyRequest changes the display currency.
type SetCurrencyRequest struct {
	SessionID string `json:"session_id"`
	Currency  string `json:"currency"`
}

// GetSessionID returns the session the request targets.
func (r *GetSessionRequest) GetSessionID() string { return r.SessionID }

// GetSessionID returns the session the request targets.
func (r *SubmitReceiptRequest) GetSessionID() string { return r.SessionID }

// GetSessionID returns the session the request targets.
func (r *SendMessageRequest) GetSessionID() string { return r.SessionID }

// GetSessionID returns the session the request targets.
func (r *DropItemRequest) GetSessionID() string { return r.SessionID }

// GetSessionID returns the session the request targets.
func (r *SetCurrencyRequest) GetSessionID() string { return r.SessionID }

// SessionResponse is returned by every procedure.
type SessionResponse struct {
	Session *SessionView `json:"session"`
}

// SessionView is a consistent snapshot of a session with its derived split.
// Amounts are in the receipt's native currency; the *_display fields are
// rendered in the display currency.
type SessionView struct {
	ID               string        `json:"id"`
	State            string        `json:"state"`
	Busy             bool          `json:"busy"`
	Receipt          *Receipt      `json:"receipt,omitempty"`
	People           []PersonSplit `json:"people"`
	Unclaimed        float64       `json:"unclaimed"`
	UnclaimedDisplay string        `json:"unclaimed_display"`
	DisplayCurrency  string        `json:"display_currency"`
	Rate             float64       `json:"rate"`
	CurrencyOptions  []string      `json:"currency_options"`
	Transcript       []Message     `json:"transcript"`
}

// Receipt is the parsed bill.
type Receipt struct {
	Items        []Item  `json:"items"`
	Subtotal     float64 `json:"subtotal"`
	Tax          float64 `json:"tax"`
	Tip          float64 `json:"tip"`
	Total        float64 `json:"total"`
	Currency     string  `json:"currency"`
	TotalDisplay string  `json:"total_display"`
}

// Item is one receipt line.
type Item struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	PriceDisplay string   `json:"price_display"`
	Assignees    []string `json:"assignees"`
}

// PersonSplit is one person's share.
type PersonSplit struct {
	Name         string   `json:"name"`
	Subtotal     float64  `json:"subtotal"`
	Tax          float64  `json:"tax"`
	Tip          float64  `json:"tip"`
	Total        float64  `json:"total"`
	TotalDisplay string   `json:"total_display"`
	Items        []string `json:"items"`
}

// Message is one transcript entry.
type Message struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}
