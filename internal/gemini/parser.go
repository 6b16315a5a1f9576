package gemini

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"github.com/mmynk/splitchat/internal/ingest"
	"github.com/mmynk/splitchat/internal/models"
)

const receiptPrompt = `Analyze the attached receipt. It may span several images; treat them as pages of one receipt.
Extract all line items with their prices. Also extract the subtotal, tax, tip (if explicitly listed) and total.
If tip is not listed, set it to 0.
Report the currency as an ISO 4217 code (e.g. "USD", "EUR").
Ensure 'price' is a number.
Assign a unique string ID to each item (e.g. 'item-1', 'item-2').
Initialize 'assignees' as an empty array for all items.
Return only a JSON object matching the schema.`

func receiptSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"items":    {Type: genai.TypeArray, Items: itemSchema()},
			"subtotal": {Type: genai.TypeNumber},
			"tax":      {Type: genai.TypeNumber},
			"tip":      {Type: genai.TypeNumber},
			"total":    {Type: genai.TypeNumber},
			"currency": {Type: genai.TypeString},
		},
		Required: []string{"items", "subtotal", "tax", "tip", "total", "currency"},
	}
}

// Parse implements ingest.ReceiptParser.
func (c *Client) Parse(ctx context.Context, pages []models.Image) (*models.Receipt, error) {
	if len(pages) == 0 {
		return nil, &ingest.ParseError{Err: errors.New("no pages")}
	}

	parts := make([]*genai.Part, 0, len(pages)+1)
	for _, p := range pages {
		parts = append(parts, genai.NewPartFromBytes(p.Data, p.ContentType))
	}
	parts = append(parts, genai.NewPartFromText(receiptPrompt))

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   receiptSchema(),
	}

	var r models.Receipt
	if err := c.generateJSON(ctx, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config, &r); err != nil {
		return nil, &ingest.ParseError{Err: err}
	}
	return &r, nil
}
