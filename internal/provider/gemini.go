// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	genai "google.golang.org/genai"

	"github.com/pdiddy/idea-engine/internal/fault"
	"github.com/pdiddy/idea-engine/pkg/types"
)

// GeminiClient is a synthesis client backed by the genai SDK.
type GeminiClient struct {
	cli    *genai.Client
	cfg    types.ProviderConfig
	logger *slog.Logger
}

// NewGeminiClient creates a Gemini API client. An empty APIKey lets the SDK
// read GEMINI_API_KEY or GOOGLE_API_KEY from the environment.
func NewGeminiClient(ctx context.Context, cfg types.ProviderConfig, opts ...Option) (*GeminiClient, error) {
	o := buildOptions(opts)
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: o.httpClient,
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiClient{cli: cli, cfg: cfg, logger: o.logger}, nil
}

// Invoke sends one GenerateContent call.
func (g *GeminiClient) Invoke(ctx context.Context, req Request) (types.ProviderResponse, error) {
	start := time.Now()
	ctx, cancel := withTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	temperature, maxTokens := resolve(g.cfg, req)
	t32 := float32(temperature)
	gc := &genai.GenerateContentConfig{Temperature: &t32, MaxOutputTokens: int32(maxTokens)}
	if req.SystemPrompt != "" {
		gc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemPrompt}}}
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.cfg.Model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.UserPrompt}}}},
		gc,
	)
	if err != nil {
		return types.ProviderResponse{}, geminiError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return types.ProviderResponse{}, &fault.ProviderError{Provider: "gemini", Message: "response has no candidates"}
	}

	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	out := types.ProviderResponse{Content: text.String(), Model: g.cfg.Model}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = types.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	logCall(g.logger, "gemini", out, start)
	return out, nil
}

// geminiError maps SDK errors onto fault.ProviderError so retry
// classification matches the HTTP clients.
func geminiError(err error) error {
	pe := &fault.ProviderError{
		Provider: "gemini",
		Timeout:  errors.Is(err, context.DeadlineExceeded),
		Message:  err.Error(),
		Err:      err,
	}
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.Code
		pe.Message = apiErr.Message
	case errors.As(err, &apiErrPtr):
		pe.StatusCode = apiErrPtr.Code
		pe.Message = apiErrPtr.Message
	}
	return pe
}
