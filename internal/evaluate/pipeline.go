// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evaluate runs a full idea evaluation: the three domain agents, the
// final recommendation, and the bookkeeping on the idea and its job.
package evaluate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pdiddy/idea-engine/internal/agent"
	"github.com/pdiddy/idea-engine/internal/recommend"
	"github.com/pdiddy/idea-engine/internal/synthesis"
	"github.com/pdiddy/idea-engine/pkg/types"
)

// Finalizer writes the final summary and recommendation.
type Finalizer interface {
	Run(ctx context.Context, in recommend.Input) (recommend.Output, error)
}

// Progress receives agent transitions and the final stage transitions.
type Progress interface {
	agent.Progress
	FinalStarted() error
	FinalDone() error
}

// Pipeline produces an EvaluationResult from an idea document.
type Pipeline struct {
	researcher  agent.Researcher
	synthesizer agent.Synthesizer
	finalizer   Finalizer
	failure     types.FailureMode
	logger      *slog.Logger
}

// NewPipeline returns a pipeline whose agents share r and s.
func NewPipeline(r agent.Researcher, s agent.Synthesizer, f Finalizer, failure types.FailureMode, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{researcher: r, synthesizer: s, finalizer: f, failure: failure, logger: logger}
}

// Run evaluates document in mode, reporting transitions to progress. It
// writes nothing itself; the caller stores the result.
func (p *Pipeline) Run(ctx context.Context, document string, mode types.EvaluationMode, progress Progress) (types.EvaluationResult, error) {
	start := time.Now()
	policy := agent.Policy{Mode: mode, FailureMode: p.failure}

	newAgent := func(d types.Domain) *agent.Agent {
		return agent.New(d, policy, p.researcher, p.synthesizer, progress, p.logger)
	}
	coord := agent.NewCoordinator(
		newAgent(types.DomainMarket),
		newAgent(types.DomainProduct),
		newAgent(types.DomainBusiness),
		p.logger,
	)

	fan, err := coord.RunAll(ctx, document)
	if err != nil {
		return types.EvaluationResult{}, err
	}

	m, b, bz := fan.Market.Synthesis, fan.Product.Synthesis, fan.Business.Synthesis
	total := synthesis.TotalScore(m.Score, b.Score, bz.Score)

	p.track(progress.FinalStarted())
	out, err := p.finalizer.Run(ctx, recommend.Input{
		Document:   document,
		Market:     m,
		Product:    b,
		Business:   bz,
		TotalScore: total,
	})
	if err != nil {
		return types.EvaluationResult{}, fmt.Errorf("final recommendation: %w", err)
	}
	p.track(progress.FinalDone())

	metrics := p.metrics(fan, out, time.Since(start))
	return types.EvaluationResult{
		MarketReport:         m.Content,
		PRD:                  b.Content,
		RiskAssessment:       bz.Content,
		Summary:              out.Summary,
		ScoreMarket:          m.Score,
		ScoreBuildability:    b.Score,
		ScoreBusiness:        bz.Score,
		ScoreTotal:           total,
		Recommendation:       out.Recommendation,
		RecommendationReason: recommend.Reason(m.Score, b.Score, bz.Score),
		Mode:                 mode,
		Metrics:              metrics,
	}, nil
}

func (p *Pipeline) track(err error) {
	if err != nil {
		p.logger.Warn("progress update failed", "error", err)
	}
}

// metrics splits cost into research and synthesis shares. The final stage
// counts as synthesis.
func (p *Pipeline) metrics(fan types.FanOutResult, out recommend.Output, d time.Duration) types.EvaluationMetrics {
	m := types.EvaluationMetrics{
		PerDomainCost: make(map[types.Domain]float64, len(types.Domains)),
		Duration:      d,
	}
	for _, a := range fan.Agents() {
		m.ResearchCost += a.ResearchCost()
		m.SynthesisCost += a.Synthesis.Cost
		m.PerDomainCost[a.Domain] = a.TotalCost
	}
	m.SynthesisCost += out.Cost
	m.TotalCost = m.ResearchCost + m.SynthesisCost

	p.logger.Info("evaluation cost breakdown",
		"total", m.TotalCost,
		"research", m.ResearchCost,
		"synthesis", m.SynthesisCost,
		"final", out.Cost,
		"market", m.PerDomainCost[types.DomainMarket],
		"product", m.PerDomainCost[types.DomainProduct],
		"business", m.PerDomainCost[types.DomainBusiness],
		"duration", d.Round(time.Millisecond))
	return m
}
