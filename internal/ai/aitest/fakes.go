// Package aitest provides scripted providers for exercising the gateway in tests.
package aitest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/songzhibin97/cryptotherapist/internal/ai"
)

// ErrScripted is the failure returned by providers configured to fail.
var ErrScripted = errors.New("scripted provider failure")

// TextProvider answers every request through Respond, counting calls.
type TextProvider struct {
	ProviderName string
	Respond      func(ctx context.Context, req ai.TextRequest) (string, error)

	calls    atomic.Int64
	mu       sync.Mutex
	requests []ai.TextRequest
}

// StaticText returns a provider that always answers body.
func StaticText(name, body string) *TextProvider {
	return &TextProvider{
		ProviderName: name,
		Respond: func(context.Context, ai.TextRequest) (string, error) {
			return body, nil
		},
	}
}

// FailingText returns a provider that always fails.
func FailingText(name string) *TextProvider {
	return &TextProvider{
		ProviderName: name,
		Respond: func(context.Context, ai.TextRequest) (string, error) {
			return "", ErrScripted
		},
	}
}

func (p *TextProvider) Name() string { return p.ProviderName }

func (p *TextProvider) Complete(ctx context.Context, req ai.TextRequest) (string, error) {
	p.calls.Add(1)
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	return p.Respond(ctx, req)
}

// Calls reports how many times Complete ran.
func (p *TextProvider) Calls() int { return int(p.calls.Load()) }

// Requests returns a copy of every request received.
func (p *TextProvider) Requests() []ai.TextRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ai.TextRequest(nil), p.requests...)
}

// ImageProvider answers with URL or Err.
type ImageProvider struct {
	ProviderName string
	URL          string
	Err          error

	calls atomic.Int64
}

func (p *ImageProvider) Name() string { return p.ProviderName }

func (p *ImageProvider) Generate(ctx context.Context, _ ai.ImageRequest) (string, error) {
	p.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.URL, p.Err
}

func (p *ImageProvider) Calls() int { return int(p.calls.Load()) }
