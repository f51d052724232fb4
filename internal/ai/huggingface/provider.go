package huggingface

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/cryptotherapist/internal/ai"
	"github.com/songzhibin97/cryptotherapist/internal/utils/request"
)

const (
	defaultEndpoint = "https://api-inference.huggingface.co/models"
	defaultModel    = "stabilityai/stable-diffusion-2-1"

	guidanceScale     = 7.5
	inferenceSteps    = 50
	negativePrompt    = "blurry, low quality, text, watermark"
	memePromptPattern = "Pixel art crypto meme: %s. Style: retro gaming, cyberpunk, 16-bit aesthetic"
)

// Provider implements the ai.ImageProvider interface against the Hugging Face
// inference API. Images come back as raw bytes and are returned as data URLs.
type Provider struct {
	apiKey     string
	endpoint   string
	model      string
	httpClient *resty.Client
}

func NewProvider(apiKey string, model string) *Provider {
	if model == "" {
		model = defaultModel
	}
	return &Provider{
		apiKey:     apiKey,
		endpoint:   defaultEndpoint,
		model:      model,
		httpClient: request.New(ai.ImageTimeout),
	}
}

func (p *Provider) Name() string {
	return "huggingface"
}

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	NegativePrompt    string  `json:"negative_prompt"`
	GuidanceScale     float64 `json:"guidance_scale"`
	NumInferenceSteps int     `json:"num_inference_steps"`
}

// Generate implements the ai.ImageProvider interface
func (p *Provider) Generate(ctx context.Context, req ai.ImageRequest) (string, error) {
	resp, err := p.httpClient.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey).
		SetHeader("Accept", "image/png").
		SetBody(inferenceRequest{
			Inputs: fmt.Sprintf(memePromptPattern, req.Prompt),
			Parameters: inferenceParameters{
				NegativePrompt:    negativePrompt,
				GuidanceScale:     guidanceScale,
				NumInferenceSteps: inferenceSteps,
			},
		}).
		Post(fmt.Sprintf("%s/%s", p.endpoint, p.model))
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	contentType, _, _ := strings.Cut(resp.Header().Get("Content-Type"), ";")
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("unexpected content type: %q", contentType)
	}

	body := resp.Body()
	if len(body) == 0 {
		return "", fmt.Errorf("empty image body")
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body), nil
}
