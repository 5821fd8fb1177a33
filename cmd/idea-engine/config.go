// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/idea-engine/internal/secrets"
	"github.com/pdiddy/idea-engine/pkg/types"
)

// configureEnv sets defaults and environment lookup on v. Nested keys map to
// IDEA_ENGINE_ variables with dots replaced by underscores.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("IDEA_ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	bindLegacyEnv(v)
}

func setDefaults(v *viper.Viper) {
	d := types.DefaultConfig()

	v.SetDefault("store.dsn", d.Store.DSN)
	v.SetDefault("store.cache_size", d.Store.CacheSize)

	v.SetDefault("evaluation.mode", string(d.Evaluation.Mode))
	v.SetDefault("evaluation.failure_mode", string(d.Evaluation.FailureMode))
	v.SetDefault("evaluation.fallback_to_legacy", d.Evaluation.FallbackToLegacy)
	v.SetDefault("eta.research", d.Evaluation.ETA.Research)
	v.SetDefault("eta.synthesis", d.Evaluation.ETA.Synthesis)
	v.SetDefault("eta.final", d.Evaluation.ETA.Final)

	v.SetDefault("research.base_url", d.Research.BaseURL)
	v.SetDefault("research.model", d.Research.Model)
	v.SetDefault("research.timeout", d.Research.Timeout)
	v.SetDefault("research.max_tokens", d.Research.MaxTokens)
	v.SetDefault("research.temperature", d.Research.Temperature)
	v.SetDefault("research.recency_filter", d.Research.RecencyFilter)
	v.SetDefault("research.cost_per_search", d.Research.CostPerSearch)

	v.SetDefault("synthesis.backend", string(d.Synthesis.Backend))
	v.SetDefault("synthesis.base_url", d.Synthesis.BaseURL)
	v.SetDefault("synthesis.model", d.Synthesis.Model)
	v.SetDefault("synthesis.timeout", d.Synthesis.Timeout)
	v.SetDefault("synthesis.max_tokens", d.Synthesis.MaxTokens)
	v.SetDefault("synthesis.temperature", d.Synthesis.Temperature)
	v.SetDefault("final.max_tokens", d.Synthesis.FinalMaxTokens)

	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.initial_delay", d.Retry.InitialDelay)
	v.SetDefault("retry.max_delay", d.Retry.MaxDelay)
	v.SetDefault("retry.multiplier", d.Retry.Multiplier)
}

// bindLegacyEnv maps the environment names used by earlier deployments.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("research.api_key", "IDEA_ENGINE_RESEARCH_API_KEY", "PERPLEXITY_API_KEY")
	_ = v.BindEnv("synthesis.api_key", "IDEA_ENGINE_SYNTHESIS_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("gemini.api_key", "IDEA_ENGINE_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("evaluation.failure_mode", "IDEA_ENGINE_EVALUATION_FAILURE_MODE", "RESEARCH_FAILURE_MODE")
	_ = v.BindEnv("evaluation.use_two_step", "USE_TWO_STEP_EVALUATION")
}

// loadConfig builds the engine configuration from v, filling API keys from
// the secrets set when they are not configured explicitly.
func loadConfig(v *viper.Viper, s secrets.Set) (types.Config, error) {
	cfg := types.Config{
		Store: types.StoreConfig{
			DSN:       v.GetString("store.dsn"),
			CacheSize: v.GetInt("store.cache_size"),
		},
		Evaluation: types.EvaluationConfig{
			Mode:             types.EvaluationMode(v.GetString("evaluation.mode")),
			FailureMode:      types.FailureMode(v.GetString("evaluation.failure_mode")),
			FallbackToLegacy: v.GetBool("evaluation.fallback_to_legacy"),
			ETA: types.ETAConfig{
				Research:  v.GetDuration("eta.research"),
				Synthesis: v.GetDuration("eta.synthesis"),
				Final:     v.GetDuration("eta.final"),
			},
		},
		Research: types.ResearchConfig{
			ProviderConfig: types.ProviderConfig{
				BaseURL:     v.GetString("research.base_url"),
				APIKey:      s.Or(secrets.PerplexityAPIKey, v.GetString("research.api_key")),
				Model:       v.GetString("research.model"),
				Timeout:     v.GetDuration("research.timeout"),
				MaxTokens:   v.GetInt("research.max_tokens"),
				Temperature: v.GetFloat64("research.temperature"),
			},
			RecencyFilter: v.GetString("research.recency_filter"),
			CostPerSearch: v.GetFloat64("research.cost_per_search"),
		},
		Synthesis: types.SynthesisConfig{
			ProviderConfig: types.ProviderConfig{
				BaseURL:     v.GetString("synthesis.base_url"),
				Model:       v.GetString("synthesis.model"),
				Timeout:     v.GetDuration("synthesis.timeout"),
				MaxTokens:   v.GetInt("synthesis.max_tokens"),
				Temperature: v.GetFloat64("synthesis.temperature"),
			},
			Backend:        types.SynthesisBackend(v.GetString("synthesis.backend")),
			FinalMaxTokens: v.GetInt("final.max_tokens"),
		},
		Retry: types.RetryConfig{
			MaxAttempts:  v.GetInt("retry.max_attempts"),
			InitialDelay: v.GetDuration("retry.initial_delay"),
			MaxDelay:     v.GetDuration("retry.max_delay"),
			Multiplier:   v.GetFloat64("retry.multiplier"),
		},
	}

	if v.IsSet("evaluation.use_two_step") && !v.GetBool("evaluation.use_two_step") {
		cfg.Evaluation.Mode = types.ModeLegacy
	}

	if cfg.Synthesis.Backend == types.BackendGemini {
		cfg.Synthesis.APIKey = s.Or(secrets.GeminiAPIKey, v.GetString("gemini.api_key"))
	} else {
		cfg.Synthesis.APIKey = s.Or(secrets.OpenAIAPIKey, v.GetString("synthesis.api_key"))
	}

	return cfg, cfg.Validate()
}
