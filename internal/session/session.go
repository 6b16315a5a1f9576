package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mmynk/splitchat/internal/calculator"
	"github.com/mmynk/splitchat/internal/currency"
	"github.com/mmynk/splitchat/internal/models"
)

// ErrNoReceipt is returned for operations that need a parsed receipt.
var ErrNoReceipt = errors.New("no receipt in session")

// Session is the single owner of one group's splitting state.
// The receipt is only written through StoreReceipt, ReplaceItems and the
// submission transitions; every write replaces it wholesale.
type Session struct {
	ID        string
	CreatedAt time.Time

	flight Flight

	mu         sync.Mutex
	state      State
	receipt    *models.Receipt
	transcript Transcript
	converter  *currency.Converter
	touched    time.Time
}

// New creates a session in StateUpload.
func New(id string, rates currency.RateProvider) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		state:     StateUpload,
		converter: currency.NewConverter(rates, currency.DefaultCode),
		touched:   now,
	}
}

// Flight returns the session's single-flight guard.
func (s *Session) Flight() *Flight {
	return &s.flight
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastTouched returns when the session was last mutated or read through a
// store.
func (s *Session) LastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Touch marks the session as in use at now. It never moves the time back.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.After(s.touched) {
		s.touched = now
	}
}

func (s *Session) transitionLocked(e Event) error {
	next, err := Next(s.state, e)
	if err != nil {
		return err
	}
	s.state = next
	s.touched = time.Now()
	return nil
}

// StartSubmission moves to StateProcessingReceipt and discards the current
// receipt and its assignments.
func (s *Session) StartSubmission() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transitionLocked(EventSubmit); err != nil {
		return err
	}
	s.receipt = nil
	return nil
}

// StoreReceipt completes a submission with a parsed receipt. The display
// currency is reset to the receipt's own currency.
func (s *Session) StoreReceipt(r *models.Receipt) error {
	if r == nil {
		return ErrNoReceipt
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transitionLocked(EventParsed); err != nil {
		return err
	}
	s.receipt = r.Clone()
	s.converter.Reset(r.Currency)
	return nil
}

// FailSubmission returns to StateUpload without a receipt.
func (s *Session) FailSubmission() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transitionLocked(EventParseFailed); err != nil {
		return err
	}
	s.receipt = nil
	return nil
}

// Items returns a copy of the current items, or ErrNoReceipt outside
// StateSplitting.
func (s *Session) Items() ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSplitting || s.receipt == nil {
		return nil, fmt.Errorf("%w (state %s)", ErrNoReceipt, s.state)
	}
	return models.CloneItems(s.receipt.Items), nil
}

// ReplaceItems swaps in a new item list. All other receipt fields are kept.
func (s *Session) ReplaceItems(items []models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSplitting || s.receipt == nil {
		return ErrNoReceipt
	}
	next := *s.receipt
	next.Items = models.CloneItems(items)
	s.receipt = &next
	s.touched = time.Now()
	return nil
}

// Receipt returns a copy of the current receipt, or nil.
func (s *Session) Receipt() *models.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receipt.Clone()
}

// Append adds a message to the transcript.
func (s *Session) Append(role models.Role, text string) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = time.Now()
	return s.transcript.Append(role, text)
}

// Transcript returns a copy of the chat transcript.
func (s *Session) Transcript() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Messages()
}

// Converter returns a copy of the display converter. Changes to the copy take
// effect only through SetConverter.
func (s *Session) Converter() *currency.Converter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.converter.Clone()
}

// SetConverter installs a converter prepared with Converter. It is rejected if
// the receipt currency changed in the meantime.
func (s *Session) SetConverter(c *currency.Converter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Native() != s.converter.Native() {
		return fmt.Errorf("converter for %s does not match receipt currency %s", c.Native(), s.converter.Native())
	}
	s.converter = c.Clone()
	s.touched = time.Now()
	return nil
}

// Snapshot is a consistent, read-only copy of a session with its derived
// split.
type Snapshot struct {
	ID              string
	State           State
	Busy            bool
	Receipt         *models.Receipt
	Split           calculator.Result
	DisplayCurrency string
	Rate            float64
	Options         []string
	Transcript      []models.Message

	converter *currency.Converter
}

// Format renders an amount in the snapshot's display currency.
func (sn Snapshot) Format(amount float64) string {
	return sn.converter.Format(amount)
}

// Snapshot returns a consistent copy of the session.
func (s *Session) Snapshot() Snapshot {
	busy := s.flight.Busy()

	s.mu.Lock()
	defer s.mu.Unlock()
	conv := s.converter.Clone()
	return Snapshot{
		ID:              s.ID,
		State:           s.state,
		Busy:            busy,
		Receipt:         s.receipt.Clone(),
		Split:           calculator.Summarize(s.receipt),
		DisplayCurrency: conv.Display(),
		Rate:            conv.Rate(),
		Options:         currency.Options(conv.Native()),
		Transcript:      s.transcript.Messages(),
		converter:       conv,
	}
}
