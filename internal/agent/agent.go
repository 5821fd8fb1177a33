// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent runs the per-domain research and synthesis pipeline and
// fans the three domains out concurrently.
package agent

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/pdiddy/idea-engine/internal/fault"
	"github.com/pdiddy/idea-engine/internal/research"
	"github.com/pdiddy/idea-engine/pkg/types"
)

// Researcher runs the research stage.
type Researcher interface {
	Run(ctx context.Context, document string, domain types.Domain) (types.ResearchResult, error)
}

// Synthesizer runs the synthesis stage, with or without research.
type Synthesizer interface {
	Run(ctx context.Context, document string, parsed types.ParsedResearch, domain types.Domain) (types.SynthesisResult, error)
	RunLegacy(ctx context.Context, document string, domain types.Domain) (types.SynthesisResult, error)
}

// Progress receives stage transitions. Implementations must be safe for
// concurrent use by all three agents.
type Progress interface {
	ResearchStarted(d types.Domain) error
	ResearchDone(d types.Domain) error
	ResearchSkipped(d types.Domain) error
	SynthesisStarted(d types.Domain) error
	SynthesisDone(d types.Domain) error
	AgentFailed(d types.Domain, err error) error
}

// NopProgress discards all transitions.
type NopProgress struct{}

func (NopProgress) ResearchStarted(types.Domain) error { return nil }
func (NopProgress) ResearchDone(types.Domain) error { return nil }
func (NopProgress) ResearchSkipped(types.Domain) error { return nil }
func (NopProgress) SynthesisStarted(types.Domain) error { return nil }
func (NopProgress) SynthesisDone(types.Domain) error { return nil }
func (NopProgress) AgentFailed(types.Domain, error) error { return nil }

// State is a step of the agent state machine.
type State string

const (
	StateStarted        State = "started"
	StateResearching    State = "researching"
	StateQualityChecked State = "quality-checked"
	StateSynthesizing   State = "synthesizing"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Policy selects how an agent runs and reacts to research problems.
type Policy struct {
	Mode        types.EvaluationMode
	FailureMode types.FailureMode
}

// Agent produces one domain report.
type Agent struct {
	domain      types.Domain
	policy      Policy
	researcher  Researcher
	synthesizer Synthesizer
	progress    Progress
	logger      *slog.Logger
}

// New returns an agent for domain. A nil progress discards transitions and
// a nil logger uses slog.Default.
func New(domain types.Domain, policy Policy, r Researcher, s Synthesizer, progress Progress, logger *slog.Logger) *Agent {
	if progress == nil {
		progress = NopProgress{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		domain:      domain,
		policy:      policy,
		researcher:  r,
		synthesizer: s,
		progress:    progress,
		logger:      logger.With("domain", domain),
	}
}

// Domain returns the domain this agent analyses.
func (a *Agent) Domain() types.Domain { return a.domain }

// run tracks the current state of one Run call.
type run struct {
	a     *Agent
	state State
}

func (r *run) to(s State) {
	r.a.logger.Debug("agent state", "from", r.state, "to", s)
	r.state = s
}

// track forwards a progress write, logging failures. Progress is advisory;
// a failed write never aborts the analysis.
func (a *Agent) track(err error) {
	if err != nil {
		a.logger.Warn("progress update failed", "error", err)
	}
}

func (r *run) fail(err error) error {
	r.a.logger.Error("agent failed", "state", r.state, "kind", fault.KindOf(err), "error", err)
	r.to(StateFailed)
	r.a.track(r.a.progress.AgentFailed(r.a.domain, err))
	return err
}

// Run executes the agent. In two-step mode research runs first and is
// quality-checked before synthesis; in legacy mode synthesis works from the
// document alone and Research is nil in the result.
func (a *Agent) Run(ctx context.Context, document string) (types.AgentResult, error) {
	start := time.Now()
	r := &run{a: a, state: StateStarted}

	if a.policy.Mode == types.ModeLegacy {
		return a.runLegacy(ctx, r, document, start)
	}

	r.to(StateResearching)
	a.track(a.progress.ResearchStarted(a.domain))
	res, err := a.researcher.Run(ctx, document, a.domain)
	if err != nil {
		return types.AgentResult{}, r.fail(a.researchFailure(err))
	}
	a.track(a.progress.ResearchDone(a.domain))

	quality := research.AssessQuality(res.Parsed)
	r.to(StateQualityChecked)
	a.logger.Info("research quality",
		"overall", quality.Overall,
		"findings", quality.Metrics.FindingsCount,
		"citations", quality.Metrics.CitationsCount,
		"coverage_score", quality.Metrics.CoverageScore,
		"issues", quality.Issues)

	if quality.Overall == types.QualityPoor {
		if a.policy.FailureMode == types.FailureFail {
			return types.AgentResult{}, r.fail(&fault.QualityError{Domain: a.domain, Issues: quality.Issues})
		}
		a.logger.Warn("continuing with poor research", "suggestions", quality.Suggestions)
	}

	r.to(StateSynthesizing)
	a.track(a.progress.SynthesisStarted(a.domain))
	syn, err := a.synthesizer.Run(ctx, document, res.Parsed, a.domain)
	if err != nil {
		return types.AgentResult{}, r.fail(err)
	}
	a.track(a.progress.SynthesisDone(a.domain))
	r.to(StateDone)

	return types.AgentResult{
		Domain:        a.domain,
		Research:      &res,
		Quality:       &quality,
		Synthesis:     syn,
		TotalDuration: time.Since(start),
		TotalCost:     res.Cost + syn.Cost,
	}, nil
}

func (a *Agent) runLegacy(ctx context.Context, r *run, document string, start time.Time) (types.AgentResult, error) {
	a.track(a.progress.ResearchSkipped(a.domain))
	r.to(StateSynthesizing)
	a.track(a.progress.SynthesisStarted(a.domain))
	syn, err := a.synthesizer.RunLegacy(ctx, document, a.domain)
	if err != nil {
		return types.AgentResult{}, r.fail(err)
	}
	a.track(a.progress.SynthesisDone(a.domain))
	r.to(StateDone)

	return types.AgentResult{
		Domain:        a.domain,
		Synthesis:     syn,
		TotalDuration: time.Since(start),
		TotalCost:     syn.Cost,
	}, nil
}

// researchFailure applies the degrade policy: a research provider that is
// down (503/504) yields an UnavailableError so the caller can fall back.
// Every other error is returned unchanged.
func (a *Agent) researchFailure(err error) error {
	if a.policy.FailureMode != types.FailureDegrade {
		return err
	}
	switch fault.StatusCode(err) {
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &fault.UnavailableError{Domain: a.domain, Err: err}
	}
	return err
}
