package calculator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/mmynk/splitchat/internal/models"
)

const epsilon = 1e-6

func TestCalculateSplit(t *testing.T) {
	tests := []struct {
		name         string
		receipt      *models.Receipt
		validateFunc func(t *testing.T, summaries []models.PersonSummary)
	}{
		{
			name: "burger solely assigned to Alice",
			receipt: &models.Receipt{
				Items: []models.Item{
					{ID: "i1", Name: "Burger", Price: 10, Assignees: []string{"Alice"}},
				},
				Subtotal: 10, Tax: 1, Tip: 2, Total: 13, Currency: "USD",
			},
			validateFunc: func(t *testing.T, summaries []models.PersonSummary) {
				if len(summaries) != 1 {
					t.Fatalf("got %d summaries, want 1", len(summaries))
				}
				alice := summaries[0]
				if alice.Name != "Alice" {
					t.Errorf("name = %q, want Alice", alice.Name)
				}
				if math.Abs(alice.Subtotal-10) > epsilon {
					t.Errorf("Alice subtotal = %v, want 10", alice.Subtotal)
				}
				if math.Abs(alice.TaxShare-1) > epsilon {
					t.Errorf("Alice tax = %v, want 1", alice.TaxShare)
				}
				if math.Abs(alice.TipShare-2) > epsilon {
					t.Errorf("Alice tip = %v, want 2", alice.TipShare)
				}
				if math.Abs(alice.Total-13) > epsilon {
					t.Errorf("Alice total = %v, want 13", alice.Total)
				}
				if len(alice.Items) != 1 || alice.Items[0] != "Burger" {
					t.Errorf("Alice items = %v, want [Burger]", alice.Items)
				}
			},
		},
		{
			name: "shared item splits evenly and labels the share",
			receipt: &models.Receipt{
				Items: []models.Item{
					{ID: "i1", Name: "Pizza", Price: 12, Assignees: []string{"Alice", "Bob"}},
				},
				Tax: 1.2,
			},
			validateFunc: func(t *testing.T, summaries []models.PersonSummary) {
				if len(summaries) != 2 {
					t.Fatalf("got %d summaries, want 2", len(summaries))
				}
				for _, s := range summaries {
					if s.Subtotal != 6 {
						t.Errorf("%s subtotal = %v, want exactly 6", s.Name, s.Subtotal)
					}
					if math.Abs(s.TaxShare-0.6) > epsilon {
						t.Errorf("%s tax = %v, want 0.6", s.Name, s.TaxShare)
					}
					if len(s.Items) != 1 || s.Items[0] != "Pizza (1/2)" {
						t.Errorf("%s items = %v, want [Pizza (1/2)]", s.Name, s.Items)
					}
				}
			},
		},
		{
			name: "tax and tip go only to claimers",
			receipt: &models.Receipt{
				Items: []models.Item{
					{ID: "i1", Name: "Steak", Price: 30, Assignees: []string{"Alice"}},
					{ID: "i2", Name: "Salad", Price: 10, Assignees: []string{"Bob"}},
					{ID: "i3", Name: "Wine", Price: 60},
				},
				Subtotal: 100, Tax: 8, Tip: 20, Total: 128,
			},
			validateFunc: func(t *testing.T, summaries []models.PersonSummary) {
				// Alice: 30/40 of tax and tip = 6 + 15, total 51
				// Bob: 10/40 = 2 + 5, total 17
				if len(summaries) != 2 {
					t.Fatalf("got %d summaries, want 2", len(summaries))
				}
				alice, bob := summaries[0], summaries[1]
				if alice.Name != "Alice" || bob.Name != "Bob" {
					t.Fatalf("order = %s, %s; want Alice, Bob", alice.Name, bob.Name)
				}
				if math.Abs(alice.Total-51) > epsilon {
					t.Errorf("Alice total = %v, want 51", alice.Total)
				}
				if math.Abs(bob.Total-17) > epsilon {
					t.Errorf("Bob total = %v, want 17", bob.Total)
				}
			},
		},
		{
			name: "no claims yields empty summaries",
			receipt: &models.Receipt{
				Items: []models.Item{
					{ID: "i1", Name: "Fries", Price: 4},
					{ID: "i2", Name: "Soda", Price: 2},
				},
				Tax: 1,
			},
			validateFunc: func(t *testing.T, summaries []models.PersonSummary) {
				if summaries == nil || len(summaries) != 0 {
					t.Errorf("summaries = %v, want empty non-nil list", summaries)
				}
			},
		},
		{
			name: "zero-priced claimed items do not divide by zero",
			receipt: &models.Receipt{
				Items: []models.Item{
					{ID: "i1", Name: "Water", Price: 0, Assignees: []string{"Alice"}},
				},
				Tax: 1,
			},
			validateFunc: func(t *testing.T, summaries []models.PersonSummary) {
				if len(summaries) != 0 {
					t.Errorf("summaries = %v, want empty", summaries)
				}
			},
		},
		{
			name: "sorted descending by total with first-seen tie-break",
			receipt: &models.Receipt{
				Items: []models.Item{
					{ID: "i1", Name: "Tea", Price: 3, Assignees: []string{"Carol"}},
					{ID: "i2", Name: "Cake", Price: 5, Assignees: []string{"Dave"}},
					{ID: "i3", Name: "Coffee", Price: 3, Assignees: []string{"Erin"}},
				},
			},
			validateFunc: func(t *testing.T, summaries []models.PersonSummary) {
				got := []string{summaries[0].Name, summaries[1].Name, summaries[2].Name}
				want := []string{"Dave", "Carol", "Erin"}
				for i := range want {
					if got[i] != want[i] {
						t.Fatalf("order = %v, want %v", got, want)
					}
				}
			},
		},
		{
			name:    "nil receipt",
			receipt: nil,
			validateFunc: func(t *testing.T, summaries []models.PersonSummary) {
				if len(summaries) != 0 {
					t.Errorf("summaries = %v, want none", summaries)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validateFunc(t, CalculateSplit(tt.receipt))
		})
	}
}

func TestUnclaimedAmount(t *testing.T) {
	r := &models.Receipt{
		Items: []models.Item{
			{ID: "i1", Name: "Burger", Price: 10, Assignees: []string{"Alice"}},
			{ID: "i2", Name: "Fries", Price: 4},
			{ID: "i3", Name: "Shake", Price: 5.5},
		},
	}
	if got := UnclaimedAmount(r); math.Abs(got-9.5) > epsilon {
		t.Errorf("UnclaimedAmount = %v, want 9.5", got)
	}
	if got := UnclaimedAmount(nil); got != 0 {
		t.Errorf("UnclaimedAmount(nil) = %v, want 0", got)
	}
}

func TestSummarize_NoClaims(t *testing.T) {
	r := &models.Receipt{
		Items: []models.Item{{ID: "i1", Name: "Fries", Price: 4}, {ID: "i2", Name: "Soda", Price: 2}},
	}
	res := Summarize(r)
	if len(res.Summaries) != 0 {
		t.Errorf("summaries = %v, want empty", res.Summaries)
	}
	if math.Abs(res.Unclaimed-6) > epsilon {
		t.Errorf("unclaimed = %v, want 6", res.Unclaimed)
	}
	if res.AssignedSubtotal != 0 {
		t.Errorf("assigned = %v, want 0", res.AssignedSubtotal)
	}
}

// TestSummarize_Conservation checks the conservation properties over
// pseudo-random receipts.
func TestSummarize_Conservation(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	people := []string{"Alice", "Bob", "Carol", "Dave", "Erin"}

	for iter := 0; iter < 200; iter++ {
		r := &models.Receipt{
			Tax: math.Round(rng.Float64()*2000) / 100,
			Tip: math.Round(rng.Float64()*3000) / 100,
		}
		var priceSum float64
		for i := 0; i < 1+rng.IntN(10); i++ {
			item := models.Item{
				ID:    fmt.Sprintf("item-%d", i+1),
				Name:  fmt.Sprintf("Dish %d", i+1),
				Price: math.Round(rng.Float64()*5000) / 100,
			}
			for _, p := range rng.Perm(len(people))[:rng.IntN(len(people)+1)] {
				item.Assignees = append(item.Assignees, people[p])
			}
			priceSum += item.Price
			r.Items = append(r.Items, item)
		}

		res := Summarize(r)

		var subtotal, tax, tip float64
		for _, s := range res.Summaries {
			subtotal += s.Subtotal
			tax += s.TaxShare
			tip += s.TipShare
			if math.Abs(s.Total-(s.Subtotal+s.TaxShare+s.TipShare)) > epsilon {
				t.Fatalf("iter %d: %s total %v != parts", iter, s.Name, s.Total)
			}
		}

		if math.Abs(res.Unclaimed+subtotal-priceSum) > epsilon {
			t.Fatalf("iter %d: unclaimed %v + subtotal %v != %v", iter, res.Unclaimed, subtotal, priceSum)
		}
		if math.Abs(subtotal-res.AssignedSubtotal) > epsilon {
			t.Fatalf("iter %d: person subtotals %v != assigned %v", iter, subtotal, res.AssignedSubtotal)
		}
		if res.AssignedSubtotal > 0 {
			if math.Abs(tax-r.Tax) > epsilon {
				t.Fatalf("iter %d: tax shares %v != %v", iter, tax, r.Tax)
			}
			if math.Abs(tip-r.Tip) > epsilon {
				t.Fatalf("iter %d: tip shares %v != %v", iter, tip, r.Tip)
			}
		} else if len(res.Summaries) != 0 {
			t.Fatalf("iter %d: got summaries without claims", iter)
		}
	}
}

func TestCalculateSplit_Summaries(t *testing.T) {
	r := &models.Receipt{
		Items: []models.Item{
			{ID: "i1", Name: "Pasta", Price: 16, Assignees: []string{"Bob"}},
			{ID: "i2", Name: "Wine", Price: 24, Assignees: []string{"Alice", "Bob"}},
			{ID: "i3", Name: "Bread", Price: 5},
		},
		Tax: 4, Tip: 8,
	}

	want := []models.PersonSummary{
		{Name: "Bob", Subtotal: 28, TaxShare: 2.8, TipShare: 5.6, Total: 36.4, Items: []string{"Pasta", "Wine (1/2)"}},
		{Name: "Alice", Subtotal: 12, TaxShare: 1.2, TipShare: 2.4, Total: 15.6, Items: []string{"Wine (1/2)"}},
	}
	got := CalculateSplit(r)
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, epsilon)); diff != "" {
		t.Errorf("CalculateSplit() mismatch (-want +got):\n%s", diff)
	}
}
