// Package gemini implements the receipt parser and assignment interpreter on
// Google's Gemini models.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

var errEmptyResponse = errors.New("empty response from model")

// generator is the subset of *genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client talks to Gemini. It implements both ingest.ReceiptParser and
// assign.Interpreter.
type Client struct {
	models generator
	model  string
}

// NewClient creates a Gemini client for the given API key.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return newClient(c.Models, model), nil
}

func newClient(models generator, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{models: models, model: model}
}

// generateJSON runs one request and decodes the JSON answer into out.
func (c *Client) generateJSON(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig, out any) error {
	resp, err := c.models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return fmt.Errorf("generate content: %w", err)
	}
	raw := resp.Text()
	if strings.TrimSpace(raw) == "" {
		return errEmptyResponse
	}
	if err := json.Unmarshal([]byte(cleanJSON(raw)), out); err != nil {
		return fmt.Errorf("unmarshal JSON: %w (raw response: %q)", err, raw)
	}
	return nil
}

// cleanJSON strips Markdown fences and any text around the outermost JSON
// object, for models that ignore the response MIME type.
func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

func itemSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id":        {Type: genai.TypeString},
			"name":      {Type: genai.TypeString},
			"price":     {Type: genai.TypeNumber},
			"assignees": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"id", "name", "price", "assignees"},
	}
}
