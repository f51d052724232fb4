package ai

import (
	"context"
	"errors"
)

// ErrProviderUnavailable is returned when every provider in a chain failed, timed out,
// or answered with a payload that did not pass validation.
var ErrProviderUnavailable = errors.New("provider unavailable")

// TextProvider defines a remote text-generation backend
type TextProvider interface {
	// Name identifies the provider in logs and metrics
	Name() string

	// Complete returns the raw completion text for the request
	Complete(ctx context.Context, req TextRequest) (string, error)
}

// ImageProvider defines a remote image-generation backend
type ImageProvider interface {
	Name() string

	// Generate returns an absolute URL or a data URL for the rendered image
	Generate(ctx context.Context, req ImageRequest) (string, error)
}

// TextRequest 文本生成请求
type TextRequest struct {
	SystemPrompt string  `json:"system_prompt"`
	UserPrompt   string  `json:"user_prompt"`
	Model        string  `json:"model"`
	Temperature  float32 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
	JSONOutput   bool    `json:"json_output"`
}

// ImageRequest 图像生成请求
type ImageRequest struct {
	Prompt string `json:"prompt"`
}

// Reply is a structured provider payload that knows how to check its own shape.
type Reply interface {
	Validate() error
}
