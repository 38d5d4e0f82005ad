package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fridge/backend/internal/domain"
)

// Client calls an OpenAI-compatible chat-completions endpoint to generate
// structured recipes.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

// NewClient creates a recipe-generation client.
func NewClient(apiKey, baseURL, model string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// recipeSchemaHint tells the model the exact JSON shape to produce; the
// response_format flag guarantees parseable JSON but not field names.
const recipeSchemaHint = `Odpowiedz wyłącznie obiektem JSON o polach:
"name" (string), "description" (string),
"ingredients" (tablica obiektów {"name": string, "amount": string}),
"steps" (tablica stringów), "cookingTime" (string),
"servings" (liczba), "tips" (string, opcjonalne).`

// GenerateRecipe sends the prompt and decodes the structured recipe from
// the completion.
func (c *Client) GenerateRecipe(ctx context.Context, prompt string) (*domain.Recipe, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt + "\n\n" + recipeSchemaHint},
		},
	}
	reqBody.ResponseFormat.Type = "json_object"

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("completion endpoint status %d: %s", resp.StatusCode, string(body))
	}

	var completion chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("failed to decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}

	var recipe domain.Recipe
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &recipe); err != nil {
		return nil, fmt.Errorf("completion was not a valid recipe: %w", err)
	}
	if recipe.Name == "" {
		return nil, fmt.Errorf("completion recipe is missing a name")
	}

	return &recipe, nil
}
