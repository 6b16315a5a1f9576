// Package assign applies assignment changes to receipt items.
//
// Every change, whether typed, gestured or produced by an interpreter, is
// expressed as a Command and applied by Apply, which enforces the item
// invariants locally: assignees are unique per item and only known item IDs
// can be touched.
package assign

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/splitchat/internal/models"
)

var (
	// ErrUnknownItem is returned when a command references an item ID that is
	// not on the receipt.
	ErrUnknownItem = errors.New("unknown item")
	// ErrItemSetMismatch is returned when a replacement list adds, drops or
	// repeats items.
	ErrItemSetMismatch = errors.New("replacement items do not match receipt")
	// ErrNoPeople is returned by Assign without any non-blank names.
	ErrNoPeople = errors.New("no people given")
)

// Command is one assignment change.
type Command interface {
	apply(items []models.Item) ([]models.Item, error)
}

// Assign adds People to an item. People already assigned are skipped.
type Assign struct {
	ItemID string
	People []string
}

// Unassign removes People from an item. An empty People clears the item.
type Unassign struct {
	ItemID string
	People []string
}

// Replace swaps in a full item list, typically from an interpreter.
// Only assignees are taken from Items; names and prices stay as on the receipt.
type Replace struct {
	Items []models.Item
}

// Apply returns the result of cmd on items. The input is never modified.
func Apply(items []models.Item, cmd Command) ([]models.Item, error) {
	return cmd.apply(models.CloneItems(items))
}

func (c Assign) apply(items []models.Item) ([]models.Item, error) {
	idx, err := indexOf(items, c.ItemID)
	if err != nil {
		return nil, err
	}
	people := cleanNames(c.People)
	if len(people) == 0 {
		return nil, ErrNoPeople
	}
	for _, p := range people {
		if !items[idx].HasAssignee(p) {
			items[idx].Assignees = append(items[idx].Assignees, p)
		}
	}
	return items, nil
}

func (c Unassign) apply(items []models.Item) ([]models.Item, error) {
	idx, err := indexOf(items, c.ItemID)
	if err != nil {
		return nil, err
	}
	people := cleanNames(c.People)
	if len(people) == 0 {
		items[idx].Assignees = []string{}
		return items, nil
	}
	drop := make(map[string]bool, len(people))
	for _, p := range people {
		drop[p] = true
	}
	kept := items[idx].Assignees[:0]
	for _, a := range items[idx].Assignees {
		if !drop[a] {
			kept = append(kept, a)
		}
	}
	items[idx].Assignees = kept
	return items, nil
}

func (c Replace) apply(items []models.Item) ([]models.Item, error) {
	if len(c.Items) != len(items) {
		return nil, fmt.Errorf("%w: got %d items, want %d", ErrItemSetMismatch, len(c.Items), len(items))
	}
	byID := make(map[string][]string, len(c.Items))
	for _, it := range c.Items {
		if _, dup := byID[it.ID]; dup {
			return nil, fmt.Errorf("%w: item %q repeated", ErrItemSetMismatch, it.ID)
		}
		byID[it.ID] = it.Assignees
	}
	for i := range items {
		assignees, ok := byID[items[i].ID]
		if !ok {
			return nil, fmt.Errorf("%w: item %q missing", ErrItemSetMismatch, items[i].ID)
		}
		items[i].Assignees = cleanNames(assignees)
	}
	return items, nil
}

func indexOf(items []models.Item, id string) (int, error) {
	for i := range items {
		if items[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownItem, id)
}

// cleanNames trims names, drops blanks and collapses duplicates, keeping the
// first occurrence.
func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
