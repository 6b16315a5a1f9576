package models

// Receipt represents a parsed bill.
// Subtotal, Tax, Tip and Total are taken verbatim from the receipt parser and are
// never reconciled against the item prices.
type Receipt struct {
	// Items are the individual line items, in display order.
	Items []Item `json:"items"`

	// Subtotal is the pre-tax amount printed on the receipt.
	Subtotal float64 `json:"subtotal"`

	// Tax is the total tax printed on the receipt.
	Tax float64 `json:"tax"`

	// Tip is the tip printed on the receipt (0 when none is listed).
	Tip float64 `json:"tip"`

	// Total is the grand total printed on the receipt.
	Total float64 `json:"total"`

	// Currency is the receipt's native currency code (e.g., "USD").
	Currency string `json:"currency"`
}

// Item represents a single line item on a receipt.
// Items can be shared among multiple people.
type Item struct {
	// ID is unique within a receipt (e.g., "item-1").
	ID string `json:"id"`

	// Name is the item label as printed (e.g., "Burger").
	Name string `json:"name"`

	// Price is the non-negative price in the receipt's currency.
	Price float64 `json:"price"`

	// Assignees is the ordered list of people claiming this item.
	// If multiple people are assigned, the price is split equally among them.
	// A name appears at most once.
	Assignees []string `json:"assignees"`
}

// Clone returns a deep copy of the receipt.
func (r *Receipt) Clone() *Receipt {
	if r == nil {
		return nil
	}
	out := *r
	out.Items = CloneItems(r.Items)
	return &out
}

// CloneItems returns a deep copy of items, including assignee slices.
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = item
		out[i].Assignees = append([]string{}, item.Assignees...)
	}
	return out
}

// HasAssignee reports whether name is already assigned to the item.
func (i Item) HasAssignee(name string) bool {
	for _, a := range i.Assignees {
		if a == name {
			return true
		}
	}
	return false
}

// PersonSummary represents one person's calculated share of a receipt.
// This is the output of the split calculation and has no identity beyond the
// receipt it was computed from.
type PersonSummary struct {
	// Name is the person's display name.
	Name string `json:"name"`

	// Subtotal is the sum of this person's per-item shares.
	Subtotal float64 `json:"subtotal"`

	// TaxShare is this person's proportional share of the receipt tax.
	// Calculated as: tax × (subtotal / total_assigned_subtotal)
	TaxShare float64 `json:"tax_share"`

	// TipShare is this person's proportional share of the receipt tip.
	TipShare float64 `json:"tip_share"`

	// Total is Subtotal + TaxShare + TipShare.
	Total float64 `json:"total"`

	// Items are the display labels of the items this person pays toward,
	// e.g. "Burger" or "Pizza (1/2)".
	Items []string `json:"items"`
}
