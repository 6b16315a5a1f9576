// Package ingest turns uploaded receipt pages into a Receipt.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/splitchat/internal/currency"
	"github.com/mmynk/splitchat/internal/models"
)

// ErrNegativePrice is reported through ParseError when a parser returns an
// item with a negative price.
var ErrNegativePrice = errors.New("negative item price")

// ReceiptParser recognizes receipt pages and extracts structured line items.
// Implementations return items with empty assignee lists.
type ReceiptParser interface {
	Parse(ctx context.Context, pages []models.Image) (*models.Receipt, error)
}

// ParserFunc adapts an ordinary function to ReceiptParser.
type ParserFunc func(ctx context.Context, pages []models.Image) (*models.Receipt, error)

// Parse calls f.
func (f ParserFunc) Parse(ctx context.Context, pages []models.Image) (*models.Receipt, error) {
	return f(ctx, pages)
}

// ParseError reports unreadable or ambiguous receipt input.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse receipt: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Normalize enforces the parser contract on r in place: assignees start empty,
// the currency defaults to USD, and every item has a unique ID.
func Normalize(r *models.Receipt) error {
	if r == nil {
		return &ParseError{Err: errors.New("parser returned no receipt")}
	}
	if strings.TrimSpace(r.Currency) == "" {
		r.Currency = currency.DefaultCode
	}

	seen := make(map[string]bool, len(r.Items))
	for i := range r.Items {
		item := &r.Items[i]
		if item.Price < 0 {
			return &ParseError{Err: fmt.Errorf("%w: %q costs %v", ErrNegativePrice, item.Name, item.Price)}
		}
		item.Name = strings.TrimSpace(item.Name)
		item.Assignees = []string{}
		if item.ID == "" || seen[item.ID] {
			item.ID = fmt.Sprintf("item-%d", i+1)
		}
		for seen[item.ID] {
			item.ID += "b"
		}
		seen[item.ID] = true
	}
	if r.Items == nil {
		r.Items = []models.Item{}
	}
	return nil
}
