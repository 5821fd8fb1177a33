// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider implements the AI provider clients used by the research,
// synthesis, and recommendation stages. Clients make exactly one call per
// Invoke; retries belong to the caller.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pdiddy/idea-engine/pkg/types"
)

// Request is one chat-style call to a provider.
type Request struct {
	SystemPrompt string
	UserPrompt   string

	// Temperature overrides the configured temperature when non-nil.
	Temperature *float64

	// MaxTokens overrides the configured limit when positive.
	MaxTokens int
}

// Client is implemented by every provider backend.
type Client interface {
	Invoke(ctx context.Context, req Request) (types.ProviderResponse, error)
}

// Option customizes a client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithLogger sets the logger for call events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{httpClient: http.DefaultClient, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewSynthesis returns the synthesis client selected by cfg.Backend.
func NewSynthesis(ctx context.Context, cfg types.SynthesisConfig, opts ...Option) (Client, error) {
	switch cfg.Backend {
	case types.BackendOpenAI, "":
		return NewSynthesisClient(cfg.ProviderConfig, opts...), nil
	case types.BackendGemini:
		return NewGeminiClient(ctx, cfg.ProviderConfig, opts...)
	}
	return nil, fmt.Errorf("unknown synthesis backend %q", cfg.Backend)
}

// Float returns a pointer to v, for Request.Temperature.
func Float(v float64) *float64 { return &v }

func resolve(cfg types.ProviderConfig, req Request) (temperature float64, maxTokens int) {
	temperature = cfg.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens = cfg.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	return temperature, maxTokens
}

// withTimeout derives the per-call deadline. A zero timeout leaves ctx as is.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func logCall(l *slog.Logger, provider string, resp types.ProviderResponse, start time.Time) {
	l.Info("provider call completed",
		"provider", provider,
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"citations", len(resp.Citations),
		"duration", time.Since(start).Round(time.Millisecond))
}
