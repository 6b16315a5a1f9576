package assign

import (
	"context"
	"fmt"

	"github.com/mmynk/splitchat/internal/models"
)

// Interpretation is an interpreter's answer to one chat command.
type Interpretation struct {
	// Items is the full replacement item list.
	Items []models.Item
	// Message is a short human-readable confirmation.
	Message string
}

// Interpreter turns free-text chat commands into item assignment changes.
type Interpreter interface {
	Interpret(ctx context.Context, items []models.Item, text string) (Interpretation, error)
}

// InterpretError reports that a command could not be turned into a valid
// item list.
type InterpretError struct {
	Text string
	Err  error
}

func (e *InterpretError) Error() string {
	return fmt.Sprintf("failed to interpret %q: %v", e.Text, e.Err)
}

func (e *InterpretError) Unwrap() error {
	return e.Err
}

// DropCommand normalizes a drag of an item onto a person into chat text.
func DropCommand(item, person string) string {
	return fmt.Sprintf("Assign %s to %s", item, person)
}
