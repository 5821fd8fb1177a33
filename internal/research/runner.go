// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research gathers cited web research for one domain of an idea and
// turns the report into structured findings.
package research

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pdiddy/idea-engine/internal/provider"
	"github.com/pdiddy/idea-engine/internal/retry"
	"github.com/pdiddy/idea-engine/pkg/types"
)

// Runner executes the research stage.
type Runner struct {
	client        provider.Client
	retry         retry.Options
	costPerSearch float64
	logger        *slog.Logger
}

// NewRunner returns a research runner. A nil logger uses slog.Default.
func NewRunner(client provider.Client, cfg types.ResearchConfig, opts retry.Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	opts.Logger = logger
	return &Runner{client: client, retry: opts, costPerSearch: cfg.CostPerSearch, logger: logger}
}

// Run researches domain for the idea document. A report with no findings is
// returned as-is; judging it is AssessQuality's job.
func (r *Runner) Run(ctx context.Context, document string, domain types.Domain) (types.ResearchResult, error) {
	start := time.Now()

	prompt, err := BuildPrompt(domain, document)
	if err != nil {
		return types.ResearchResult{}, err
	}

	resp, err := retry.Do(ctx, r.retry.Named(string(domain)+" research"), func(ctx context.Context) (types.ProviderResponse, error) {
		return r.client.Invoke(ctx, provider.Request{SystemPrompt: prompt.System, UserPrompt: prompt.User})
	})
	if err != nil {
		return types.ResearchResult{}, fmt.Errorf("%s research: %w", domain, err)
	}

	parsed := Parse(resp.Content, resp.Citations, domain)
	const searches = 1
	result := types.ResearchResult{
		Parsed:            parsed,
		RawContent:        resp.Content,
		Model:             resp.Model,
		TokensUsed:        resp.Usage.TotalTokens,
		SearchesPerformed: searches,
		Duration:          time.Since(start),
		Cost:              searches * r.costPerSearch,
	}

	r.logger.Info("research completed",
		"domain", domain,
		"findings", len(parsed.Findings),
		"citations", len(parsed.Citations),
		"coverage", parsed.Coverage.Overall,
		"cost", result.Cost,
		"duration", result.Duration.Round(time.Millisecond))
	return result, nil
}
