// Package session owns the mutable state of one bill-splitting session: the
// ingestion lifecycle, the current receipt, the chat transcript, the display
// currency and the single-flight guard.
package session

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned for an event the current state does not accept.
var ErrInvalidTransition = errors.New("invalid state transition")

// State is the ingestion lifecycle state.
type State int

const (
	// StateUpload waits for a receipt submission.
	StateUpload State = iota
	// StateProcessingReceipt waits for the receipt parser.
	StateProcessingReceipt
	// StateSplitting has a receipt and accepts assignment changes.
	StateSplitting
)

func (s State) String() string {
	switch s {
	case StateUpload:
		return "UPLOAD"
	case StateProcessingReceipt:
		return "PROCESSING_RECEIPT"
	case StateSplitting:
		return "SPLITTING"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Event drives a state transition.
type Event string

const (
	// EventSubmit is a file submission (first receipt or "new receipt").
	EventSubmit Event = "submit"
	// EventParsed is a successful parse.
	EventParsed Event = "parse_ok"
	// EventParseFailed is a decode or parse failure.
	EventParseFailed Event = "parse_failed"
)

type transitionKey struct {
	from  State
	event Event
}

// transitions is the complete lifecycle table. Submitting while processing
// supersedes the in-flight parse.
var transitions = map[transitionKey]State{
	{StateUpload, EventSubmit}:                 StateProcessingReceipt,
	{StateSplitting, EventSubmit}:              StateProcessingReceipt,
	{StateProcessingReceipt, EventSubmit}:      StateProcessingReceipt,
	{StateProcessingReceipt, EventParsed}:      StateSplitting,
	{StateProcessingReceipt, EventParseFailed}: StateUpload,
}

// Next returns the state reached from s on e.
func Next(s State, e Event) (State, error) {
	next, ok := transitions[transitionKey{s, e}]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
	}
	return next, nil
}
