package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mmynk/splitchat/internal/models"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestDecodeAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	encoded := base64.StdEncoding.EncodeToString(pngHeader)
	uploads := []Upload{
		{Name: "page1.png", Data: pngHeader},
		{Name: "page2.png", Base64: encoded},
		{Name: "page3.png", Base64: "data:image/png;base64," + encoded},
		{Name: "page4.heic", Data: []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p'}, ContentType: "image/heic"},
	}

	pages, err := DecodeAll(context.Background(), uploads)
	require.NoError(t, err)
	require.Len(t, pages, 4)
	for i, p := range pages[:3] {
		assert.Equal(t, "image/png", p.ContentType, "page %d", i+1)
		assert.Equal(t, pngHeader, p.Data, "page %d", i+1)
	}
	assert.Equal(t, "image/heic", pages[3].ContentType)
}

func TestDecodeAll_AnyFailureFailsSubmission(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []struct {
		name    string
		uploads []Upload
		wantErr error
	}{
		{"no pages", nil, ErrNoPages},
		{"empty page", []Upload{{Data: pngHeader}, {Name: "blank"}}, ErrUnreadable},
		{"bad base64", []Upload{{Data: pngHeader}, {Base64: "!!not base64!!"}}, ErrUnreadable},
		{"text file", []Upload{{Data: []byte("hello, this is not an image")}}, ErrUnreadable},
		{"declared image but text", []Upload{{Data: []byte("plain text"), ContentType: "image/png"}}, ErrUnreadable},
		{"malformed data url", []Upload{{Base64: "data:image/png;base64"}}, ErrUnreadable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := DecodeAll(context.Background(), tt.uploads)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, pages)
		})
	}
}

func TestDecodeAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DecodeAll(ctx, []Upload{{Data: pngHeader}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalize(t *testing.T) {
	r := &models.Receipt{
		Items: []models.Item{
			{ID: "a", Name: " Burger ", Price: 10, Assignees: []string{"Ghost"}},
			{ID: "a", Name: "Fries", Price: 4},
			{Name: "Soda", Price: 2},
		},
	}
	require.NoError(t, Normalize(r))

	assert.Equal(t, "USD", r.Currency)
	assert.Equal(t, "Burger", r.Items[0].Name)
	assert.Empty(t, r.Items[0].Assignees)
	assert.NotNil(t, r.Items[1].Assignees)

	ids := map[string]bool{}
	for _, it := range r.Items {
		assert.False(t, ids[it.ID], "duplicate id %s", it.ID)
		ids[it.ID] = true
	}
}

func TestNormalize_Rejects(t *testing.T) {
	var pe *ParseError

	err := Normalize(nil)
	require.True(t, errors.As(err, &pe))

	err = Normalize(&models.Receipt{Items: []models.Item{{ID: "x", Name: "Refund", Price: -3}}})
	require.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, ErrNegativePrice)
}
