// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// ProviderConfig holds the settings shared by every AI provider client.
type ProviderConfig struct {
	// BaseURL is the API root (e.g. "https://api.perplexity.ai").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is the bearer token sent with every request.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Model is the model identifier requested from the provider.
	Model string `json:"model" yaml:"model"`

	// Timeout bounds a single provider call. Each retry attempt gets a fresh timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxTokens caps the completion length.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Temperature is the sampling temperature.
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

// ResearchConfig configures the research provider and the research stage.
type ResearchConfig struct {
	ProviderConfig `yaml:",inline"`

	// RecencyFilter restricts web search to recent sources ("day", "week", "month").
	RecencyFilter string `json:"recency_filter" yaml:"recency_filter"`

	// CostPerSearch is the flat price in USD charged per research call.
	CostPerSearch float64 `json:"cost_per_search" yaml:"cost_per_search"`
}

// SynthesisBackend selects the synthesis provider implementation.
type SynthesisBackend string

const (
	BackendOpenAI SynthesisBackend = "openai"
	BackendGemini SynthesisBackend = "gemini"
)

// SynthesisConfig configures the synthesis provider. The final
// recommendation stage shares it but uses FinalMaxTokens.
type SynthesisConfig struct {
	ProviderConfig `yaml:",inline"`

	// Backend selects openai (HTTP chat completions) or gemini (genai SDK).
	Backend SynthesisBackend `json:"backend" yaml:"backend"`

	// FinalMaxTokens caps the final recommendation completion (default 2500).
	FinalMaxTokens int `json:"final_max_tokens" yaml:"final_max_tokens"`
}

// RetryConfig configures the retry executor.
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts" yaml:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay" yaml:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay" yaml:"max_delay"`
	Multiplier   float64       `json:"multiplier" yaml:"multiplier"`
}

// EvaluationMode selects how each domain analysis is produced.
type EvaluationMode string

const (
	// ModeTwoStep runs research then synthesis for every domain.
	ModeTwoStep EvaluationMode = "two-step"

	// ModeLegacy synthesizes straight from the idea document.
	ModeLegacy EvaluationMode = "legacy"
)

// FailureMode is the policy applied when research fails or is poor.
type FailureMode string

const (
	FailureFail    FailureMode = "fail"
	FailureDegrade FailureMode = "degrade"
)

// ETAConfig holds per-phase duration estimates used for progress reporting.
type ETAConfig struct {
	Research  time.Duration `json:"research" yaml:"research"`
	Synthesis time.Duration `json:"synthesis" yaml:"synthesis"`
	Final     time.Duration `json:"final" yaml:"final"`
}

// EvaluationConfig holds orchestration policy.
type EvaluationConfig struct {
	Mode        EvaluationMode `json:"mode" yaml:"mode"`
	FailureMode FailureMode    `json:"failure_mode" yaml:"failure_mode"`

	// FallbackToLegacy reruns an evaluation in legacy mode when research is
	// unavailable under the degrade policy.
	FallbackToLegacy bool `json:"fallback_to_legacy" yaml:"fallback_to_legacy"`

	ETA ETAConfig `json:"eta" yaml:"eta"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// DSN is a SQLite file path or a postgres:// URL.
	DSN string `json:"dsn" yaml:"dsn"`

	// CacheSize is the number of ideas held in the read cache (0 disables it).
	CacheSize int `json:"cache_size" yaml:"cache_size"`
}

// Config groups all settings for the engine.
type Config struct {
	Store      StoreConfig      `json:"store" yaml:"store"`
	Evaluation EvaluationConfig `json:"evaluation" yaml:"evaluation"`
	Research   ResearchConfig   `json:"research" yaml:"research"`
	Synthesis  SynthesisConfig  `json:"synthesis" yaml:"synthesis"`
	Retry      RetryConfig      `json:"retry" yaml:"retry"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{
			DSN:       "data/idea-engine.db",
			CacheSize: 256,
		},
		Evaluation: EvaluationConfig{
			Mode:             ModeTwoStep,
			FailureMode:      FailureFail,
			FallbackToLegacy: true,
			ETA: ETAConfig{
				Research:  3 * time.Minute,
				Synthesis: 45 * time.Second,
				Final:     30 * time.Second,
			},
		},
		Research: ResearchConfig{
			ProviderConfig: ProviderConfig{
				BaseURL:     "https://api.perplexity.ai",
				Model:       "sonar-deep-research",
				Timeout:     10 * time.Minute,
				MaxTokens:   4000,
				Temperature: 0.2,
			},
			RecencyFilter: "month",
			CostPerSearch: 0.04,
		},
		Synthesis: SynthesisConfig{
			ProviderConfig: ProviderConfig{
				BaseURL:     "https://api.openai.com/v1",
				Model:       "gpt-4o",
				Timeout:     60 * time.Second,
				MaxTokens:   3000,
				Temperature: 0.7,
			},
			Backend:        BackendOpenAI,
			FinalMaxTokens: 2500,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     10 * time.Second,
			Multiplier:   2,
		},
	}
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	switch c.Evaluation.Mode {
	case ModeTwoStep, ModeLegacy:
	default:
		return fmt.Errorf("evaluation.mode %q: want two-step or legacy", c.Evaluation.Mode)
	}
	switch c.Evaluation.FailureMode {
	case FailureFail, FailureDegrade:
	default:
		return fmt.Errorf("evaluation.failure_mode %q: want fail or degrade", c.Evaluation.FailureMode)
	}
	switch c.Synthesis.Backend {
	case BackendOpenAI, BackendGemini:
	default:
		return fmt.Errorf("synthesis.backend %q: want openai or gemini", c.Synthesis.Backend)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}
