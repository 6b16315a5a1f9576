package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitchat/internal/currency"
	"github.com/mmynk/splitchat/internal/models"
)

func TestNext(t *testing.T) {
	tests := []struct {
		from    State
		event   Event
		want    State
		wantErr bool
	}{
		{StateUpload, EventSubmit, StateProcessingReceipt, false},
		{StateSplitting, EventSubmit, StateProcessingReceipt, false},
		{StateProcessingReceipt, EventSubmit, StateProcessingReceipt, false},
		{StateProcessingReceipt, EventParsed, StateSplitting, false},
		{StateProcessingReceipt, EventParseFailed, StateUpload, false},
		{StateUpload, EventParsed, StateUpload, true},
		{StateUpload, EventParseFailed, StateUpload, true},
		{StateSplitting, EventParsed, StateSplitting, true},
		{StateSplitting, EventParseFailed, StateSplitting, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.event)+" from "+tt.from.String(), func(t *testing.T) {
			got, err := Next(tt.from, tt.event)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Next() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("error %v is not ErrInvalidTransition", err)
			}
			if got != tt.want {
				t.Errorf("Next() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFlight_SingleFlight(t *testing.T) {
	var f Flight
	ctx := context.Background()

	t1, _, err := f.Begin(ctx)
	require.NoError(t, err)
	assert.True(t, f.Busy())

	_, _, err = f.Begin(ctx)
	require.ErrorIs(t, err, ErrBusy)

	applied := false
	require.True(t, f.Finish(t1, func() { applied = true }))
	assert.True(t, applied)
	assert.False(t, f.Busy())

	// A ticket settles once.
	assert.False(t, f.Finish(t1, nil))

	_, _, err = f.Begin(ctx)
	require.NoError(t, err)
}

func TestFlight_PreemptDiscardsStaleResponse(t *testing.T) {
	var f Flight
	ctx := context.Background()

	old, oldCtx, err := f.Begin(ctx)
	require.NoError(t, err)

	cur, _, preempted := f.Preempt(ctx)
	assert.True(t, preempted)
	assert.ErrorIs(t, oldCtx.Err(), context.Canceled)
	assert.Equal(t, uint64(2), f.Generation())

	stale := false
	assert.False(t, f.Finish(old, func() { stale = true }))
	assert.False(t, stale, "stale response must not be applied")
	assert.True(t, f.Busy(), "newer request still outstanding")

	assert.True(t, f.Finish(cur, nil))
	assert.False(t, f.Busy())
}

func TestFlight_ConcurrentBegin(t *testing.T) {
	var f Flight
	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := f.Begin(context.Background()); err == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, started)
}

func testReceipt() *models.Receipt {
	return &models.Receipt{
		Items: []models.Item{
			{ID: "i1", Name: "Burger", Price: 10, Assignees: []string{}},
			{ID: "i2", Name: "Fries", Price: 4, Assignees: []string{}},
		},
		Subtotal: 14, Tax: 1, Tip: 2, Total: 17, Currency: "EUR",
	}
}

func TestSession_Lifecycle(t *testing.T) {
	s := New("s1", currency.StaticProvider{Base: "EUR", Rates: map[string]float64{"USD": 1.1}})
	assert.Equal(t, StateUpload, s.State())

	_, err := s.Items()
	require.ErrorIs(t, err, ErrNoReceipt)
	require.ErrorIs(t, s.FailSubmission(), ErrInvalidTransition)

	require.NoError(t, s.StartSubmission())
	require.NoError(t, s.StoreReceipt(testReceipt()))
	assert.Equal(t, StateSplitting, s.State())

	snap := s.Snapshot()
	assert.Equal(t, "EUR", snap.DisplayCurrency)
	assert.Equal(t, 1.0, snap.Rate)
	assert.InDelta(t, 14, snap.Split.Unclaimed, 1e-9)

	items, err := s.Items()
	require.NoError(t, err)
	items[0].Assignees = []string{"Alice"}
	assert.Empty(t, s.Receipt().Items[0].Assignees, "Items must return a copy")

	require.NoError(t, s.ReplaceItems(items))
	r := s.Receipt()
	assert.Equal(t, []string{"Alice"}, r.Items[0].Assignees)
	assert.Equal(t, 1.0, r.Tax, "other receipt fields untouched")

	// New receipt discards the old one.
	require.NoError(t, s.StartSubmission())
	assert.Nil(t, s.Receipt())
	require.ErrorIs(t, s.ReplaceItems(items), ErrNoReceipt)

	require.NoError(t, s.FailSubmission())
	assert.Equal(t, StateUpload, s.State())
	assert.Nil(t, s.Receipt())
}

func TestSession_ConverterResetsOnNewReceipt(t *testing.T) {
	s := New("s1", currency.StaticProvider{Base: "EUR", Rates: map[string]float64{"USD": 1.1}})
	require.NoError(t, s.StartSubmission())
	require.NoError(t, s.StoreReceipt(testReceipt()))

	c := s.Converter()
	require.NoError(t, c.SetDisplayCurrency(context.Background(), "USD"))
	assert.Equal(t, "EUR", s.Snapshot().DisplayCurrency, "copy must not leak")
	require.NoError(t, s.SetConverter(c))
	assert.Equal(t, "USD", s.Snapshot().DisplayCurrency)

	require.NoError(t, s.StartSubmission())
	r := testReceipt()
	r.Currency = "GBP"
	require.NoError(t, s.StoreReceipt(r))

	snap := s.Snapshot()
	assert.Equal(t, "GBP", snap.DisplayCurrency)
	assert.Equal(t, 1.0, snap.Rate)

	// A converter prepared for the previous receipt is rejected.
	require.Error(t, s.SetConverter(c))
}

func TestSession_TranscriptOrder(t *testing.T) {
	s := New("s1", nil)
	s.Append(models.RoleUser, "one")
	s.Append(models.RoleAssistant, "two")
	s.Append(models.RoleUser, "three")

	msgs := s.Transcript()
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Text)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "three", msgs[2].Text)
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)
}
