package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/cryptotherapist/internal/ai"
)

func setupTestServer(t *testing.T, path string, handler func(w http.ResponseWriter, body map[string]interface{})) (*httptest.Server, *Provider) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, path, r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		handler(w, body)
	}))

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	config.HTTPClient = server.Client()

	return server, NewProviderWithConfig(config)
}

func TestProvider_Complete(t *testing.T) {
	server, p := setupTestServer(t, "/v1/chat/completions", func(w http.ResponseWriter, body map[string]interface{}) {
		assert.Equal(t, "gpt-4o", body["model"])
		assert.EqualValues(t, 500, body["max_tokens"])
		format, ok := body["response_format"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "json_object", format["type"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": `{"message":"hi"}`}},
			},
		})
	})
	defer server.Close()

	got, err := p.Complete(context.Background(), ai.TextRequest{
		SystemPrompt: "sys",
		UserPrompt:   "user",
		Model:        ai.TherapyCall.Model,
		Temperature:  ai.TherapyCall.Temperature,
		MaxTokens:    ai.TherapyCall.MaxTokens,
		JSONOutput:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"message":"hi"}`, got)
}

func TestProvider_CompleteUsesRequestModel(t *testing.T) {
	var models []interface{}
	server, p := setupTestServer(t, "/v1/chat/completions", func(w http.ResponseWriter, body map[string]interface{}) {
		models = append(models, body["model"])
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": `{}`}},
			},
		})
	})
	defer server.Close()

	for _, model := range []string{"gpt-4o", "gpt-4o-mini"} {
		_, err := p.Complete(context.Background(), ai.TextRequest{Model: model})
		require.NoError(t, err)
	}
	assert.Equal(t, []interface{}{"gpt-4o", "gpt-4o-mini"}, models)
}

func TestProvider_CompleteNoChoices(t *testing.T) {
	server, p := setupTestServer(t, "/v1/chat/completions", func(w http.ResponseWriter, _ map[string]interface{}) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	})
	defer server.Close()

	_, err := p.Complete(context.Background(), ai.TextRequest{Model: "gpt-4o"})
	assert.Error(t, err)
}

func TestProvider_Generate(t *testing.T) {
	server, p := setupTestServer(t, "/v1/images/generations", func(w http.ResponseWriter, body map[string]interface{}) {
		assert.Equal(t, DefaultImageModel, body["model"])
		assert.Contains(t, body["prompt"], "rocket")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"created": 1,
			"data":    []map[string]string{{"url": "https://img/dalle.png"}},
		})
	})
	defer server.Close()

	url, err := p.Generate(context.Background(), ai.ImageRequest{Prompt: "rocket"})
	require.NoError(t, err)
	assert.Equal(t, "https://img/dalle.png", url)
}

func TestProvider_GenerateServerError(t *testing.T) {
	server, p := setupTestServer(t, "/v1/images/generations", func(w http.ResponseWriter, _ map[string]interface{}) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	})
	defer server.Close()

	_, err := p.Generate(context.Background(), ai.ImageRequest{Prompt: "rocket"})
	assert.Error(t, err)
}

func TestProvider_Integration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if testing.Short() || apiKey == "" {
		t.Skip("Skipping integration test")
	}

	p := NewProvider(apiKey)
	got, err := p.Complete(context.Background(), ai.TextRequest{
		SystemPrompt: `Reply in JSON: {"title": string, "content": string, "analysis": string}`,
		UserPrompt:   "Bitcoin hits new high",
		Model:        ai.SatireCall.Model,
		Temperature:  ai.SatireCall.Temperature,
		MaxTokens:    ai.SatireCall.MaxTokens,
		JSONOutput:   true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}
