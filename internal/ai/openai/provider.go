package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/songzhibin97/cryptotherapist/internal/ai"
)

const (
	// DefaultImageModel renders memes.
	DefaultImageModel = openai.CreateImageModelDallE3

	memePromptTemplate = "Create a pixel art style crypto meme: %s. Style: 16-bit pixel art, retro gaming aesthetic, " +
		"cyberpunk influence. Make it humorous and relevant to cryptocurrency culture. Use bright neon colors and retro gaming elements."
)

// Provider implements ai.TextProvider and ai.ImageProvider using OpenAI
type Provider struct {
	client     *openai.Client
	imageModel string
}

// NewProvider creates a new OpenAI provider instance. The text model always comes
// from the request.
func NewProvider(apiKey string) *Provider {
	return NewProviderWithConfig(openai.DefaultConfig(apiKey))
}

// NewProviderWithConfig creates a provider from a prepared client config (base URL, HTTP client).
func NewProviderWithConfig(config openai.ClientConfig) *Provider {
	return &Provider{
		client:     openai.NewClientWithConfig(config),
		imageModel: DefaultImageModel,
	}
}

func (p *Provider) Name() string {
	return "openai"
}

// Complete implements the ai.TextProvider interface
func (p *Provider) Complete(ctx context.Context, req ai.TextRequest) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.UserPrompt,
			},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONOutput {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	return resp.Choices[0].Message.Content, nil
}

// Generate implements the ai.ImageProvider interface
func (p *Provider) Generate(ctx context.Context, req ai.ImageRequest) (string, error) {
	resp, err := p.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         fmt.Sprintf(memePromptTemplate, req.Prompt),
		Model:          p.imageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		Quality:        openai.CreateImageQualityStandard,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("openai image error: %w", err)
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("no image url from openai")
	}

	return resp.Data[0].URL, nil
}
