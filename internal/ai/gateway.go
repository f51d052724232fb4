package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Logger is the logging surface the gateway needs; *slog.Logger satisfies it.
type Logger interface {
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Gateway fronts the text and image capabilities. Each capability is an ordered chain of
// providers; the first provider that succeeds wins and later ones are not called.
type Gateway struct {
	text    []TextProvider
	images  []ImageProvider
	logger  Logger
	metrics *Metrics
}

// NewGateway creates a gateway. Providers are tried in the order given.
func NewGateway(text []TextProvider, images []ImageProvider, logger Logger, metrics *Metrics) *Gateway {
	return &Gateway{
		text:    text,
		images:  images,
		logger:  logger,
		metrics: metrics,
	}
}

// GenerateText runs the text chain for call and decodes the first valid payload into a T.
// It fails with ErrProviderUnavailable once every provider has failed.
func GenerateText[T any, PT interface {
	*T
	Reply
}](ctx context.Context, g *Gateway, call Call, system, user string) (*T, error) {
	if len(g.text) == 0 {
		return nil, fmt.Errorf("%w: no text providers configured", ErrProviderUnavailable)
	}

	req := TextRequest{
		SystemPrompt: system,
		UserPrompt:   user,
		Model:        call.Model,
		Temperature:  call.Temperature,
		MaxTokens:    call.MaxTokens,
		JSONOutput:   true,
	}

	var errs []error
	for _, p := range g.text {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		var out T
		err := g.attemptText(ctx, p, call, req, PT(&out))
		if err == nil {
			g.metrics.observe("text", p.Name(), "ok")
			return &out, nil
		}

		g.metrics.observe("text", p.Name(), "error")
		g.logger.Warn("text provider failed", "provider", p.Name(), "call", call.Name, "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}

	return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, errors.Join(errs...))
}

func (g *Gateway) attemptText(ctx context.Context, p TextProvider, call Call, req TextRequest, out Reply) error {
	ctx, cancel := context.WithTimeout(ctx, call.Timeout)
	defer cancel()

	raw, err := p.Complete(ctx, req)
	if err != nil {
		return err
	}

	payload := extractJSON(raw)
	if payload == "" {
		return fmt.Errorf("empty response")
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("failed to parse structured reply: %w", err)
	}

	if err := out.Validate(); err != nil {
		return fmt.Errorf("invalid structured reply: %w", err)
	}
	return nil
}

// GenerateImage renders concept with the first image provider that succeeds.
// A nil result means no provider could produce an image; it is not an error.
func (g *Gateway) GenerateImage(ctx context.Context, concept string) *string {
	for _, p := range g.images {
		if ctx.Err() != nil {
			return nil
		}

		url, err := g.attemptImage(ctx, p, concept)
		if err == nil {
			g.metrics.observe("image", p.Name(), "ok")
			g.logger.Info("generated meme", "provider", p.Name())
			return &url
		}

		g.metrics.observe("image", p.Name(), "error")
		g.logger.Warn("image provider failed", "provider", p.Name(), "err", err)
	}
	return nil
}

func (g *Gateway) attemptImage(ctx context.Context, p ImageProvider, concept string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ImageTimeout)
	defer cancel()

	url, err := p.Generate(ctx, ImageRequest{Prompt: concept})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("empty image url")
	}
	return url, nil
}

// extractJSON strips markdown code fences some models wrap around JSON output.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
