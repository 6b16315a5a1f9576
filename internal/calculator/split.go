package calculator

import (
	"fmt"
	"sort"

	"github.com/mmynk/splitchat/internal/models"
)

// Result bundles everything derived from a receipt in one pass.
type Result struct {
	// Summaries are sorted descending by Total.
	Summaries []models.PersonSummary

	// Unclaimed is the total price of items nobody has claimed.
	Unclaimed float64

	// AssignedSubtotal is the full price of every item with at least one assignee.
	AssignedSubtotal float64
}

// Summarize computes per-person summaries and the unclaimed amount.
func Summarize(r *models.Receipt) Result {
	summaries, assigned := calculate(r)
	return Result{
		Summaries:        summaries,
		Unclaimed:        UnclaimedAmount(r),
		AssignedSubtotal: assigned,
	}
}

// CalculateSplit computes how much each person owes including proportional tax and tip.
// Based on the algorithm: person_total = person_subtotal × (1 + (tax + tip) / assigned_subtotal)
//
// Tax and tip are distributed only across people who have claimed something, in
// proportion to their claimed subtotal. Unclaimed items do not dilute the shares.
func CalculateSplit(r *models.Receipt) []models.PersonSummary {
	summaries, _ := calculate(r)
	return summaries
}

// UnclaimedAmount returns the sum of prices of items with no assignees.
func UnclaimedAmount(r *models.Receipt) float64 {
	if r == nil {
		return 0
	}
	var unclaimed float64
	for _, item := range r.Items {
		if len(item.Assignees) == 0 {
			unclaimed += item.Price
		}
	}
	return unclaimed
}

func calculate(r *models.Receipt) ([]models.PersonSummary, float64) {
	if r == nil {
		return nil, 0
	}

	// People in first-seen order; ties in the final sort keep this order.
	var order []string
	people := make(map[string]*models.PersonSummary)
	var totalAssigned float64

	// Calculate each person's subtotal based on assigned items
	for _, item := range r.Items {
		n := len(item.Assignees)
		if n == 0 {
			continue
		}

		share := item.Price / float64(n)
		label := item.Name
		if n > 1 {
			label = fmt.Sprintf("%s (1/%d)", item.Name, n)
		}
		for _, name := range item.Assignees {
			p, ok := people[name]
			if !ok {
				p = &models.PersonSummary{Name: name}
				people[name] = p
				order = append(order, name)
			}
			p.Subtotal += share
			p.Items = append(p.Items, label)
		}
		totalAssigned += item.Price
	}

	if totalAssigned == 0 {
		return []models.PersonSummary{}, 0
	}

	// Apply proportional tax and tip and calculate total
	summaries := make([]models.PersonSummary, 0, len(order))
	for _, name := range order {
		p := people[name]
		ratio := p.Subtotal / totalAssigned
		p.TaxShare = r.Tax * ratio
		p.TipShare = r.Tip * ratio
		p.Total = p.Subtotal + p.TaxShare + p.TipShare
		summaries = append(summaries, *p)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Total > summaries[j].Total
	})
	return summaries, totalAssigned
}
