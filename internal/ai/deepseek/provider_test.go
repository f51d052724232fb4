package deepseek

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/cryptotherapist/internal/ai"
)

var apiKey = os.Getenv("DEEPSEEK_API_KEY")

func setupTestServer(t *testing.T, status int, body string) (*httptest.Server, *Provider) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, defaultModel, req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))

	p := NewProvider("test-key", "")
	p.endpoint = server.URL
	p.client = server.Client()
	return server, p
}

func TestProvider_Complete(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{
			name:   "valid response",
			status: http.StatusOK,
			body:   `{"choices":[{"message":{"content":"{\"title\":\"t\"}"}}]}`,
			want:   `{"title":"t"}`,
		},
		{
			name:    "api error field",
			status:  http.StatusOK,
			body:    `{"choices":[],"error":{"message":"quota"}}`,
			wantErr: true,
		},
		{
			name:    "no choices",
			status:  http.StatusOK,
			body:    `{"choices":[]}`,
			wantErr: true,
		},
		{
			name:    "http 429 rate limit",
			status:  http.StatusTooManyRequests,
			body:    `{}`,
			wantErr: true,
		},
		{
			name:    "invalid json response",
			status:  http.StatusOK,
			body:    "invalid json",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, p := setupTestServer(t, tt.status, tt.body)
			defer server.Close()

			got, err := p.Complete(context.Background(), ai.TextRequest{
				SystemPrompt: "sys",
				UserPrompt:   "user",
				Model:        "gpt-4o",
				JSONOutput:   true,
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProvider_Integration(t *testing.T) {
	if testing.Short() || apiKey == "" {
		t.Skip("Skipping integration test")
	}

	p := NewProvider(apiKey, "")
	got, err := p.Complete(context.Background(), ai.TextRequest{
		SystemPrompt: `Reply in JSON: {"title": string, "content": string, "analysis": string}`,
		UserPrompt:   "Ethereum gas fees drop to zero",
		Temperature:  ai.SatireCall.Temperature,
		MaxTokens:    ai.SatireCall.MaxTokens,
		JSONOutput:   true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}
