// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/pdiddy/idea-engine/internal/agent"
	"github.com/pdiddy/idea-engine/internal/evaluate"
	"github.com/pdiddy/idea-engine/internal/provider"
	"github.com/pdiddy/idea-engine/internal/recommend"
	"github.com/pdiddy/idea-engine/internal/research"
	"github.com/pdiddy/idea-engine/internal/retry"
	"github.com/pdiddy/idea-engine/internal/store"
	"github.com/pdiddy/idea-engine/internal/synthesis"
	"github.com/pdiddy/idea-engine/pkg/types"
)

// app holds the configuration and open store shared by subcommands.
type app struct {
	cfg    types.Config
	store  *store.Store
	logger *slog.Logger
}

func openApp() (*app, error) {
	cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, store: st, logger: slog.Default()}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) providerOptions() []provider.Option {
	return []provider.Option{provider.WithLogger(a.logger)}
}

func (a *app) researchRunner() (*research.Runner, error) {
	if a.cfg.Research.APIKey == "" {
		return nil, errors.New("research API key missing: set PERPLEXITY_API_KEY or .secrets/perplexity-api-key")
	}
	client := provider.NewResearchClient(a.cfg.Research, a.providerOptions()...)
	return research.NewRunner(client, a.cfg.Research, retry.FromConfig(a.cfg.Retry), a.logger), nil
}

func (a *app) synthesisClient(ctx context.Context) (provider.Client, error) {
	// The genai SDK falls back to GEMINI_API_KEY or GOOGLE_API_KEY itself.
	if a.cfg.Synthesis.APIKey == "" && a.cfg.Synthesis.Backend != types.BackendGemini {
		return nil, errors.New("synthesis API key missing: set OPENAI_API_KEY or .secrets/openai-api-key")
	}
	return provider.NewSynthesis(ctx, a.cfg.Synthesis, a.providerOptions()...)
}

// service wires the providers, stages, and store into an evaluation service.
func (a *app) service(ctx context.Context) (*evaluate.Service, error) {
	opts := retry.FromConfig(a.cfg.Retry)

	synth, err := a.synthesisClient(ctx)
	if err != nil {
		return nil, err
	}

	// Legacy mode never calls the research provider.
	var researcher agent.Researcher
	if a.cfg.Evaluation.Mode == types.ModeTwoStep {
		r, err := a.researchRunner()
		if err != nil {
			return nil, err
		}
		researcher = r
	}

	pipeline := evaluate.NewPipeline(
		researcher,
		synthesis.NewRunner(synth, a.cfg.Synthesis, synthesis.DefaultPrices, opts, a.logger),
		recommend.NewStage(synth, a.cfg.Synthesis, synthesis.DefaultPrices, opts, a.logger),
		a.cfg.Evaluation.FailureMode,
		a.logger,
	)
	return evaluate.NewService(a.store, pipeline, a.cfg.Evaluation, a.logger), nil
}
