package assign

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/mmynk/splitchat/internal/models"
)

var (
	// ErrUnrecognized is returned for phrasings the pattern interpreter does
	// not understand.
	ErrUnrecognized = errors.New("unrecognized command")
	// ErrNoMatch is returned when no receipt item resembles the named item.
	ErrNoMatch = errors.New("no matching item")
)

// maxFuzzyRatio is the largest edit distance, relative to the longer name,
// still accepted as a match.
const maxFuzzyRatio = 0.4

var (
	assignRe = regexp.MustCompile(`(?i)^(?:assign|give|put)\s+(?:the\s+)?(.+)\s+to\s+(.+)$`)
	// claimRe anchors on the first verb, so item names such as "Split Pea Soup"
	// stay on the item side.
	claimRe    = regexp.MustCompile(`(?i)^(.+?)\s+(?:shared|split|had|ordered|got|took)\s+(?:the\s+)?(.+)$`)
	removeRe   = regexp.MustCompile(`(?i)^(?:remove|take)\s+(.+?)\s+(?:from|off)\s+(?:the\s+)?(.+)$`)
	unassignRe = regexp.MustCompile(`(?i)^(?:unassign|clear)\s+(?:the\s+)?(.+)$`)
	peopleSep  = regexp.MustCompile(`(?i)\s*(?:,|&|\band\b)\s*`)
)

// PatternInterpreter understands a fixed set of phrasings without calling out
// to a model:
//
//	Assign <item> to <people>
//	<people> had|ordered <item>
//	<people> shared|split <item>
//	Remove <people> from <item>
//	Unassign|Clear <item>
//
// <people> is a list separated by commas, "&" or "and".
type PatternInterpreter struct{}

// Interpret implements Interpreter.
func (PatternInterpreter) Interpret(_ context.Context, items []models.Item, text string) (Interpretation, error) {
	cmd, msg, err := parse(items, text)
	if err != nil {
		return Interpretation{}, &InterpretError{Text: text, Err: err}
	}
	updated, err := Apply(items, cmd)
	if err != nil {
		return Interpretation{}, &InterpretError{Text: text, Err: err}
	}
	return Interpretation{Items: updated, Message: msg}, nil
}

func parse(items []models.Item, text string) (Command, string, error) {
	line := strings.TrimRight(strings.TrimSpace(text), ".!?")

	if m := assignRe.FindStringSubmatch(line); m != nil {
		return assignCommand(items, m[1], m[2])
	}
	if m := removeRe.FindStringSubmatch(line); m != nil {
		item, err := MatchItem(items, m[2])
		if err != nil {
			return nil, "", err
		}
		people := splitPeople(m[1])
		return Unassign{ItemID: item.ID, People: people},
			fmt.Sprintf("Okay, I've removed %s from the %s.", joinPeople(people), item.Name), nil
	}
	if m := unassignRe.FindStringSubmatch(line); m != nil {
		item, err := MatchItem(items, m[1])
		if err != nil {
			return nil, "", err
		}
		return Unassign{ItemID: item.ID},
			fmt.Sprintf("Okay, nobody is on the %s now.", item.Name), nil
	}
	if m := claimRe.FindStringSubmatch(line); m != nil {
		return assignCommand(items, m[2], m[1])
	}
	return nil, "", ErrUnrecognized
}

func assignCommand(items []models.Item, itemText, peopleText string) (Command, string, error) {
	item, err := MatchItem(items, itemText)
	if err != nil {
		return nil, "", err
	}
	people := splitPeople(peopleText)
	if len(people) == 0 {
		return nil, "", ErrNoPeople
	}
	msg := fmt.Sprintf("Okay, I've put the %s on %s.", item.Name, joinPeople(people))
	if len(people) > 1 {
		msg = fmt.Sprintf("Okay, I've split the %s between %s.", item.Name, joinPeople(people))
	}
	return Assign{ItemID: item.ID, People: people}, msg, nil
}

// MatchItem finds the receipt item a user most likely means by name.
// It tries the item ID, an exact case-insensitive name, a unique substring
// match and finally the closest name by edit distance.
func MatchItem(items []models.Item, name string) (models.Item, error) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return models.Item{}, ErrNoMatch
	}

	for _, it := range items {
		if it.ID == name || strings.ToLower(it.Name) == q {
			return it, nil
		}
	}

	var partial []models.Item
	for _, it := range items {
		n := strings.ToLower(it.Name)
		if strings.Contains(n, q) || strings.Contains(q, n) {
			partial = append(partial, it)
		}
	}
	if len(partial) == 1 {
		return partial[0], nil
	}

	best, bestRatio := -1, maxFuzzyRatio
	for i, it := range items {
		n := strings.ToLower(it.Name)
		longer := max(len(n), len(q))
		ratio := float64(levenshtein.ComputeDistance(n, q)) / float64(longer)
		if ratio < bestRatio {
			best, bestRatio = i, ratio
		}
	}
	if best < 0 {
		return models.Item{}, fmt.Errorf("%w: %q", ErrNoMatch, name)
	}
	return items[best], nil
}

func splitPeople(s string) []string {
	return cleanNames(peopleSep.Split(strings.TrimSpace(s), -1))
}

func joinPeople(people []string) string {
	switch len(people) {
	case 0:
		return "everyone"
	case 1:
		return people[0]
	default:
		return strings.Join(people[:len(people)-1], ", ") + " and " + people[len(people)-1]
	}
}
