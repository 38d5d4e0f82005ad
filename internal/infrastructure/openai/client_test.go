package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionWith(content string) string {
	payload := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func TestGenerateRecipe_Success(t *testing.T) {
	var gotReq chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Write([]byte(completionWith(`{
			"name": "Jajecznica z pomidorami",
			"description": "Szybkie danie",
			"ingredients": [{"name": "jajka", "amount": "3 szt"}],
			"steps": ["Roztrzep jajka", "Smaż"],
			"cookingTime": "10 min",
			"servings": 2
		}`)))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, "gpt-4o-mini")
	recipe, err := client.GenerateRecipe(context.Background(), "Składniki: jajka, pomidory")

	require.NoError(t, err)
	assert.Equal(t, "Jajecznica z pomidorami", recipe.Name)
	assert.Len(t, recipe.Ingredients, 1)
	assert.Equal(t, 2, recipe.Servings)

	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	assert.Equal(t, "json_object", gotReq.ResponseFormat.Type)
	require.Len(t, gotReq.Messages, 1)
	assert.Contains(t, gotReq.Messages[0].Content, "Składniki: jajka, pomidory")
}

func TestGenerateRecipe_NonJSONContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionWith("Sorry, I cannot help with that.")))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, "gpt-4o-mini")
	_, err := client.GenerateRecipe(context.Background(), "prompt")

	assert.Error(t, err)
}

func TestGenerateRecipe_MissingName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionWith(`{"description": "bez nazwy"}`)))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, "gpt-4o-mini")
	_, err := client.GenerateRecipe(context.Background(), "prompt")

	assert.Error(t, err)
}

func TestGenerateRecipe_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, "gpt-4o-mini")
	_, err := client.GenerateRecipe(context.Background(), "prompt")

	assert.Error(t, err)
}

func TestGenerateRecipe_EndpointError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, "gpt-4o-mini")
	_, err := client.GenerateRecipe(context.Background(), "prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestConfigured(t *testing.T) {
	assert.True(t, NewClient("key", "http://localhost", "m").Configured())
	assert.False(t, NewClient("", "http://localhost", "m").Configured())
}
