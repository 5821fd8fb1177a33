// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesis turns research findings into a scored analytical report
// for one domain.
package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pdiddy/idea-engine/internal/provider"
	"github.com/pdiddy/idea-engine/internal/retry"
	"github.com/pdiddy/idea-engine/pkg/types"
)

// Runner executes the synthesis stage.
type Runner struct {
	client provider.Client
	model  string
	prices PriceTable
	retry  retry.Options
	logger *slog.Logger
}

// NewRunner returns a synthesis runner. A nil prices uses DefaultPrices and
// a nil logger uses slog.Default.
func NewRunner(client provider.Client, cfg types.SynthesisConfig, prices PriceTable, opts retry.Options, logger *slog.Logger) *Runner {
	if prices == nil {
		prices = DefaultPrices
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts.Logger = logger
	return &Runner{client: client, model: cfg.Model, prices: prices, retry: opts, logger: logger}
}

// Run synthesizes a report for domain from the idea document and parsed research.
func (r *Runner) Run(ctx context.Context, document string, parsed types.ParsedResearch, domain types.Domain) (types.SynthesisResult, error) {
	return r.run(ctx, document, &parsed, domain)
}

// RunLegacy synthesizes a report from the idea document alone.
func (r *Runner) RunLegacy(ctx context.Context, document string, domain types.Domain) (types.SynthesisResult, error) {
	return r.run(ctx, document, nil, domain)
}

func (r *Runner) run(ctx context.Context, document string, parsed *types.ParsedResearch, domain types.Domain) (types.SynthesisResult, error) {
	start := time.Now()
	agent := Agent(domain)

	prompt, err := BuildPrompt(domain, document, parsed)
	if err != nil {
		return types.SynthesisResult{}, err
	}

	resp, err := retry.Do(ctx, r.retry.Named(agent+" synthesis"), func(ctx context.Context) (types.ProviderResponse, error) {
		return r.client.Invoke(ctx, provider.Request{SystemPrompt: prompt.System, UserPrompt: prompt.User})
	})
	if err != nil {
		return types.SynthesisResult{}, fmt.Errorf("%s synthesis: %w", agent, err)
	}

	score, err := ParseScore(resp.Content, agent)
	if err != nil {
		return types.SynthesisResult{}, err
	}

	model := resp.Model
	if model == "" {
		model = r.model
	}
	result := types.SynthesisResult{
		Content:  resp.Content,
		Score:    score,
		Model:    model,
		Usage:    resp.Usage,
		Duration: time.Since(start),
		Cost:     r.prices.Cost(model, resp.Usage.TotalTokens),
	}

	r.logger.Info("synthesis completed",
		"agent", agent,
		"score", score,
		"tokens", resp.Usage.TotalTokens,
		"cost", result.Cost,
		"legacy", parsed == nil,
		"duration", result.Duration.Round(time.Millisecond))
	return result, nil
}
