// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package recommend produces the final evaluation summary and the
// go/hold/reject recommendation from the three domain reports.
package recommend

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/pdiddy/idea-engine/internal/fault"
	"github.com/pdiddy/idea-engine/internal/provider"
	"github.com/pdiddy/idea-engine/internal/retry"
	"github.com/pdiddy/idea-engine/internal/synthesis"
	"github.com/pdiddy/idea-engine/pkg/types"
)

const agentName = "notes-synthesizer"

const systemPrompt = `Du er Notes Synthesizer, en senior strategisk rådgiver. Du leser tre evalueringer av samme produktidé (marked, teknisk gjennomførbarhet, forretning) og gir én helhetlig anbefaling.

Retningslinjer:
- GÅ VIDERE: total score 7.0 eller høyere og ingen enkeltscore under 5
- AVVENT: total score 5.0-6.9, eller én dimensjon under 5
- FORKAST: total score under 5.0, eller flere dimensjoner under 5

Skriv en kort oppsummering med styrker, svakheter og neste steg.
Skriv anbefalingen på en egen linje, nøyaktig slik:
Anbefaling: GÅ VIDERE
(eller Anbefaling: AVVENT / Anbefaling: FORKAST)`

var inputTmpl = template.Must(template.New("final").Parse(`# Idéutkast

{{.Document}}

# Markedsrapport (Score: {{.Market.Score}}/10)

{{.Market.Content}}

# PRD - Product Requirements Document (Score: {{.Product.Score}}/10)

{{.Product.Content}}

# Risikovurdering (Score: {{.Business.Score}}/10)

{{.Business.Content}}

# Total score: {{.TotalScore}}/10
`))

var (
	goRe     = regexp.MustCompile(`(?i)Anbefaling:\s*GÅ\s+VIDERE`)
	holdRe   = regexp.MustCompile(`(?i)Anbefaling:\s*AVVENT`)
	rejectRe = regexp.MustCompile(`(?i)Anbefaling:\s*FORKAST`)
)

// ParseRecommendation extracts the recommendation from text. Explicit
// "Anbefaling: X" lines are checked first in go, hold, reject order; a
// text mentioning "anbefaling" together with a phrase is the fallback.
func ParseRecommendation(text string) (types.Recommendation, error) {
	switch {
	case goRe.MatchString(text):
		return types.RecommendGo, nil
	case holdRe.MatchString(text):
		return types.RecommendHold, nil
	case rejectRe.MatchString(text):
		return types.RecommendReject, nil
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "anbefaling") {
		switch {
		case strings.Contains(lower, "gå videre"):
			return types.RecommendGo, nil
		case strings.Contains(lower, "avvent"):
			return types.RecommendHold, nil
		case strings.Contains(lower, "forkast"):
			return types.RecommendReject, nil
		}
	}

	return "", &fault.ValidationError{
		Agent:    agentName,
		Field:    "recommendation",
		Reason:   "no recommendation phrase found",
		Expected: "Anbefaling: GÅ VIDERE|AVVENT|FORKAST",
	}
}

// Input is everything the final stage reads.
type Input struct {
	Document   string
	Market     types.SynthesisResult
	Product    types.SynthesisResult
	Business   types.SynthesisResult
	TotalScore float64
}

// Output is the final summary and its parsed recommendation.
type Output struct {
	Summary        string
	Recommendation types.Recommendation
	Model          string
	Usage          types.Usage
	Cost           float64
	Duration       time.Duration
}

// Stage runs the final recommendation call.
type Stage struct {
	client    provider.Client
	model     string
	maxTokens int
	prices    synthesis.PriceTable
	retry     retry.Options
	logger    *slog.Logger
}

// NewStage returns a final stage using the synthesis provider settings with
// cfg.FinalMaxTokens as the completion limit.
func NewStage(client provider.Client, cfg types.SynthesisConfig, prices synthesis.PriceTable, opts retry.Options, logger *slog.Logger) *Stage {
	if prices == nil {
		prices = synthesis.DefaultPrices
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts.Logger = logger
	return &Stage{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.FinalMaxTokens,
		prices:    prices,
		retry:     opts,
		logger:    logger,
	}
}

// Run asks for the final summary and parses its recommendation. The total
// score in the input is computed by the caller and never read back.
func (s *Stage) Run(ctx context.Context, in Input) (Output, error) {
	start := time.Now()

	var buf bytes.Buffer
	if err := inputTmpl.Execute(&buf, in); err != nil {
		return Output{}, fmt.Errorf("rendering final prompt: %w", err)
	}
	req := provider.Request{SystemPrompt: systemPrompt, UserPrompt: buf.String(), MaxTokens: s.maxTokens}

	resp, err := retry.Do(ctx, s.retry.Named(agentName), func(ctx context.Context) (types.ProviderResponse, error) {
		return s.client.Invoke(ctx, req)
	})
	if err != nil {
		return Output{}, fmt.Errorf("%s: %w", agentName, err)
	}

	rec, err := ParseRecommendation(resp.Content)
	if err != nil {
		return Output{}, err
	}

	model := resp.Model
	if model == "" {
		model = s.model
	}
	out := Output{
		Summary:        resp.Content,
		Recommendation: rec,
		Model:          model,
		Usage:          resp.Usage,
		Cost:           s.prices.Cost(model, resp.Usage.TotalTokens),
		Duration:       time.Since(start),
	}
	s.logger.Info("recommendation parsed",
		"recommendation", rec.Label(),
		"total_score", in.TotalScore,
		"cost", out.Cost)
	return out, nil
}

// Reason is the one-line justification stored with the recommendation.
func Reason(market, buildability, business float64) string {
	return fmt.Sprintf("Basert på scores: marked %g/10, byggbarhet %g/10, business %g/10", market, buildability, business)
}
