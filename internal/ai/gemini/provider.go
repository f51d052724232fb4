package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/songzhibin97/cryptotherapist/internal/ai"
)

const defaultModel = "gemini-2.0-flash"

// Provider implements the ai.TextProvider interface using Google's Gemini API.
type Provider struct {
	client *genai.Client
	model  string
}

// NewProvider creates a Gemini provider. baseURL may be empty to use the public endpoint.
func NewProvider(ctx context.Context, apiKey, model, baseURL string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = defaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Provider{client: client, model: model}, nil
}

func (p *Provider) Name() string {
	return "gemini"
}

// Complete implements the ai.TextProvider interface
func (p *Provider) Complete(ctx context.Context, req ai.TextRequest) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(req.Temperature),
		MaxOutputTokens:   int32(req.MaxTokens),
	}
	if req.JSONOutput {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{genai.NewContentFromText(req.UserPrompt, genai.RoleUser)},
		config,
	)
	if err != nil {
		return "", fmt.Errorf("gemini api error: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("no response from gemini")
	}
	return text, nil
}
