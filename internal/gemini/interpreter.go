package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/mmynk/splitchat/internal/assign"
	"github.com/mmynk/splitchat/internal/models"
)

const assignPrompt = `You are a helpful bill splitting assistant.
Your goal is to update the 'assignees' list for receipt items based on the user's chat message.

Current items: %s

Rules:
1. If the user says "Dave had the burger", find the item "burger" (fuzzy match) and ADD "Dave" to its assignees.
2. If the user says "Sarah and Mike shared the pizza", ADD both "Sarah" and "Mike" to the pizza's assignees.
3. If the user says "Remove Dave from burger", remove him.
4. If the user refers to "everything" or "all drinks", infer the items from their names.
5. Keep existing assignees unless explicitly asked to change or remove them.
6. Never add, remove or rename items and never change prices.
7. Return the FULL updated list of items in 'updatedItems'.
8. Also provide a short, friendly 'message' confirming what you did (e.g. "Okay, I've split the pizza between Sarah and Mike.").`

func assignSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"updatedItems": {Type: genai.TypeArray, Items: itemSchema()},
			"message":      {Type: genai.TypeString},
		},
		Required: []string{"updatedItems", "message"},
	}
}

type assignResponse struct {
	UpdatedItems []models.Item `json:"updatedItems"`
	Message      string        `json:"message"`
}

// Interpret implements assign.Interpreter.
func (c *Client) Interpret(ctx context.Context, items []models.Item, text string) (assign.Interpretation, error) {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return assign.Interpretation{}, &assign.InterpretError{Text: text, Err: err}
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(fmt.Sprintf(assignPrompt, itemsJSON), genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    assignSchema(),
	}

	var out assignResponse
	if err := c.generateJSON(ctx, genai.Text(text), config, &out); err != nil {
		return assign.Interpretation{}, &assign.InterpretError{Text: text, Err: err}
	}
	if out.UpdatedItems == nil {
		return assign.Interpretation{}, &assign.InterpretError{Text: text, Err: errors.New("model returned no items")}
	}
	return assign.Interpretation{Items: out.UpdatedItems, Message: out.Message}, nil
}
