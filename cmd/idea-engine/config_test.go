// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/idea-engine/internal/secrets"
	"github.com/pdiddy/idea-engine/pkg/types"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	for _, name := range []string{
		"PERPLEXITY_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY",
		"USE_TWO_STEP_EVALUATION", "RESEARCH_FAILURE_MODE",
		"IDEA_ENGINE_EVALUATION_MODE", "IDEA_ENGINE_EVALUATION_FAILURE_MODE",
		"IDEA_ENGINE_RESEARCH_API_KEY", "IDEA_ENGINE_SYNTHESIS_API_KEY",
	} {
		t.Setenv(name, "")
	}
	v := viper.New()
	configureEnv(v)
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newTestViper(t), secrets.Set{})
	require.NoError(t, err)

	d := types.DefaultConfig()
	assert.Equal(t, d.Store, cfg.Store)
	assert.Equal(t, d.Evaluation, cfg.Evaluation)
	assert.Equal(t, d.Retry, cfg.Retry)
	assert.Equal(t, "sonar-deep-research", cfg.Research.Model)
	assert.Equal(t, 10*time.Minute, cfg.Research.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Synthesis.Timeout)
	assert.Equal(t, 2500, cfg.Synthesis.FinalMaxTokens)
	assert.Empty(t, cfg.Research.APIKey)
}

func TestLoadConfig_SecretsFillKeys(t *testing.T) {
	s := secrets.Set{secrets.PerplexityAPIKey: "pplx", secrets.OpenAIAPIKey: "sk"}
	cfg, err := loadConfig(newTestViper(t), s)
	require.NoError(t, err)
	assert.Equal(t, "pplx", cfg.Research.APIKey)
	assert.Equal(t, "sk", cfg.Synthesis.APIKey)
}

func TestLoadConfig_EnvBeatsSecrets(t *testing.T) {
	v := newTestViper(t)
	t.Setenv("PERPLEXITY_API_KEY", "from-env")
	cfg, err := loadConfig(v, secrets.Set{secrets.PerplexityAPIKey: "from-file"})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Research.APIKey)
}

func TestLoadConfig_LegacyEnvNames(t *testing.T) {
	v := newTestViper(t)
	t.Setenv("USE_TWO_STEP_EVALUATION", "false")
	t.Setenv("RESEARCH_FAILURE_MODE", "degrade")

	cfg, err := loadConfig(v, secrets.Set{})
	require.NoError(t, err)
	assert.Equal(t, types.ModeLegacy, cfg.Evaluation.Mode)
	assert.Equal(t, types.FailureDegrade, cfg.Evaluation.FailureMode)
}

func TestLoadConfig_PrefixedEnv(t *testing.T) {
	v := newTestViper(t)
	t.Setenv("IDEA_ENGINE_RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("IDEA_ENGINE_RESEARCH_TIMEOUT", "2m")

	cfg, err := loadConfig(v, secrets.Set{})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.Research.Timeout)
}

func TestLoadConfig_GeminiBackendUsesGeminiKey(t *testing.T) {
	v := newTestViper(t)
	v.Set("synthesis.backend", "gemini")
	cfg, err := loadConfig(v, secrets.Set{secrets.OpenAIAPIKey: "sk", secrets.GeminiAPIKey: "gm"})
	require.NoError(t, err)
	assert.Equal(t, "gm", cfg.Synthesis.APIKey)
}

func TestLoadConfig_RejectsUnknownMode(t *testing.T) {
	v := newTestViper(t)
	v.Set("evaluation.mode", "three-step")
	_, err := loadConfig(v, secrets.Set{})
	assert.ErrorContains(t, err, "evaluation.mode")
}

func TestFormatIdeaList(t *testing.T) {
	score := 7.0
	ideas := []types.Idea{
		{ID: "a", Title: "Evaluated", Status: types.IdeaEvaluated, ScoreTotal: &score, Recommendation: types.RecommendGo},
		{ID: "b", Title: "Draft", Status: types.IdeaDraft},
	}
	var buf bytes.Buffer
	require.NoError(t, formatIdeaList(&buf, ideas))

	out := buf.String()
	assert.Contains(t, out, "7.0")
	assert.Contains(t, out, "GÅ VIDERE")
	assert.Contains(t, out, "2 ideas")
}

func TestFormatJob(t *testing.T) {
	job := types.Job{
		ID:         "job-1",
		Status:     types.JobRunning,
		Phase:      types.PhaseSynthesis,
		Step:       "Synthesizing reports (1/3 done)",
		ETASeconds: 75,
		Agents: map[types.Domain]types.AgentProgress{
			types.DomainMarket: {Research: types.SubCompleted, Synthesis: types.SubCompleted},
		},
		FinalStatus: types.SubPending,
	}
	var buf bytes.Buffer
	formatJob(&buf, job)

	out := buf.String()
	assert.Contains(t, out, "running (synthesis)")
	assert.Contains(t, out, "ETA:  1m15s")
	assert.Contains(t, out, "Synthesizing reports (1/3 done)")
}

func TestWriteFormatted_RejectsUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := writeFormatted(&buf, "xml", struct{}{}, nil)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Målgr...", truncate("Målgruppeanalyse", 8))
}

func TestSynthesisClient_KeyRequirement(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg := types.DefaultConfig()
	a := &app{cfg: cfg, logger: slog.Default()}
	_, err := a.synthesisClient(context.Background())
	assert.ErrorContains(t, err, "synthesis API key missing")

	a.cfg.Synthesis.Backend = types.BackendGemini
	a.cfg.Synthesis.Model = "gemini-2.5-flash"
	client, err := a.synthesisClient(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, client)
}
