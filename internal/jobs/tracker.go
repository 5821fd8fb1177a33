// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jobs tracks the progress of an evaluation job. Every change is
// written as a field-level patch so concurrent agents never overwrite each
// other's status.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/idea-engine/pkg/types"
)

// ErrTerminal is returned for any transition out of a completed or failed job.
var ErrTerminal = errors.New("job already finished")

// Store persists job patches.
type Store interface {
	UpdateJob(ctx context.Context, id string, patch types.JobPatch) error
}

// writeTimeout bounds a single status write.
const writeTimeout = 10 * time.Second

// Tracker mirrors one job in memory and writes every transition to the store.
// It is safe for concurrent use.
type Tracker struct {
	store  Store
	eta    types.ETAConfig
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	job         types.Job
	phaseStart  time.Time
	finalActive bool
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// NewTracker returns a tracker for job, which must already exist in store.
func NewTracker(store Store, job types.Job, eta types.ETAConfig, opts ...Option) *Tracker {
	t := &Tracker{store: store, eta: eta, job: job, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	if t.job.Agents == nil {
		t.job.Agents = make(map[types.Domain]types.AgentProgress, len(types.Domains))
	}
	return t
}

// Job returns a snapshot of the tracked job.
func (t *Tracker) Job() types.Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	return types.JobPatch{}.Apply(t.job)
}

// Start moves a pending job to running.
func (t *Tracker) Start() error {
	return t.update(func(j types.Job) (types.JobPatch, error) {
		if j.Status != types.JobPending {
			return types.JobPatch{}, fmt.Errorf("starting job in state %s", j.Status)
		}
		now := t.now()
		t.phaseStart = now
		status := types.JobRunning
		phase := types.PhaseResearch
		return types.JobPatch{Status: &status, Phase: &phase, StartedAt: &now}, nil
	})
}

// ResearchStarted marks research for d as running.
func (t *Tracker) ResearchStarted(d types.Domain) error {
	return t.setResearch(d, types.SubRunning)
}

// ResearchDone marks research for d as completed.
func (t *Tracker) ResearchDone(d types.Domain) error {
	return t.setResearch(d, types.SubCompleted)
}

// ResearchSkipped marks research for d as not applicable.
func (t *Tracker) ResearchSkipped(d types.Domain) error {
	return t.setResearch(d, types.SubSkipped)
}

// SynthesisStarted marks synthesis for d as running.
func (t *Tracker) SynthesisStarted(d types.Domain) error {
	return t.setSynthesis(d, types.SubRunning)
}

// SynthesisDone marks synthesis for d as completed.
func (t *Tracker) SynthesisDone(d types.Domain) error {
	return t.setSynthesis(d, types.SubCompleted)
}

// AgentFailed marks whichever stage of d was running as failed.
func (t *Tracker) AgentFailed(d types.Domain, _ error) error {
	return t.update(func(j types.Job) (types.JobPatch, error) {
		a := j.Agents[d]
		if a.Synthesis == types.SubRunning {
			return types.JobPatch{Synthesis: map[types.Domain]types.SubStatus{d: types.SubFailed}}, nil
		}
		return types.JobPatch{Research: map[types.Domain]types.SubStatus{d: types.SubFailed}}, nil
	})
}

// FinalStarted marks the final recommendation stage as running.
func (t *Tracker) FinalStarted() error {
	return t.update(func(types.Job) (types.JobPatch, error) {
		t.finalActive = true
		t.phaseStart = t.now()
		s := types.SubRunning
		return types.JobPatch{FinalStatus: &s}, nil
	})
}

// FinalDone marks the final recommendation stage as completed.
func (t *Tracker) FinalDone() error {
	return t.update(func(types.Job) (types.JobPatch, error) {
		s := types.SubCompleted
		return types.JobPatch{FinalStatus: &s}, nil
	})
}

// Complete marks the job completed. Callers make this the last write of an
// evaluation, after results are stored.
func (t *Tracker) Complete() error {
	return t.update(func(types.Job) (types.JobPatch, error) {
		now := t.now()
		status := types.JobCompleted
		phase := types.PhaseComplete
		return types.JobPatch{Status: &status, Phase: &phase, CompletedAt: &now}, nil
	})
}

// Fail marks the job failed with cause's message.
func (t *Tracker) Fail(cause error) error {
	return t.update(func(types.Job) (types.JobPatch, error) {
		now := t.now()
		status := types.JobFailed
		msg := cause.Error()
		return types.JobPatch{Status: &status, Error: &msg, CompletedAt: &now}, nil
	})
}

// Reset returns a job to its pending research state, keeping its ID, so the
// same job can be rerun in another mode.
func (t *Tracker) Reset() error {
	return t.update(func(j types.Job) (types.JobPatch, error) {
		t.finalActive = false
		t.phaseStart = t.now()
		phase := types.PhaseResearch
		final := types.SubPending
		p := types.JobPatch{
			Phase:       &phase,
			FinalStatus: &final,
			Research:    map[types.Domain]types.SubStatus{},
			Synthesis:   map[types.Domain]types.SubStatus{},
		}
		for _, d := range types.Domains {
			p.Research[d] = types.SubPending
			p.Synthesis[d] = types.SubPending
		}
		return p, nil
	})
}

func (t *Tracker) setResearch(d types.Domain, s types.SubStatus) error {
	return t.update(func(types.Job) (types.JobPatch, error) {
		return types.JobPatch{Research: map[types.Domain]types.SubStatus{d: s}}, nil
	})
}

func (t *Tracker) setSynthesis(d types.Domain, s types.SubStatus) error {
	return t.update(func(types.Job) (types.JobPatch, error) {
		return types.JobPatch{Synthesis: map[types.Domain]types.SubStatus{d: s}}, nil
	})
}

// update computes a patch from the current state, adds the derived phase,
// step, and ETA fields that changed, and writes it.
func (t *Tracker) update(change func(types.Job) (types.JobPatch, error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.job.Status.Terminal() {
		return fmt.Errorf("job %s is %s: %w", t.job.ID, t.job.Status, ErrTerminal)
	}

	patch, err := change(t.job)
	if err != nil {
		return err
	}
	next := patch.Apply(t.job)
	t.derive(&patch, &next)

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := t.store.UpdateJob(ctx, t.job.ID, patch); err != nil {
		return fmt.Errorf("updating job %s: %w", t.job.ID, err)
	}
	t.job = next
	return nil
}

// derive fills in phase, step description, and ETA on patch when they
// differ from next, and applies them to next.
func (t *Tracker) derive(patch *types.JobPatch, next *types.Job) {
	if next.Status == types.JobFailed {
		return
	}

	phase := next.Phase
	if next.Status == types.JobRunning {
		phase = t.phaseOf(*next)
	}
	if phase != next.Phase {
		if phase == types.PhaseSynthesis && !t.finalActive {
			t.phaseStart = t.now()
		}
		patch.Phase = &phase
		next.Phase = phase
	}

	step := t.step(*next)
	if step != next.Step {
		patch.Step = &step
		next.Step = step
	}

	eta := t.etaSeconds(*next)
	if eta != next.ETASeconds {
		patch.ETASeconds = &eta
		next.ETASeconds = eta
	}
}

// phaseOf is research until every domain's research has finished, then
// synthesis (which includes the final stage).
func (t *Tracker) phaseOf(j types.Job) types.Phase {
	if j.Status == types.JobCompleted {
		return types.PhaseComplete
	}
	for _, d := range types.Domains {
		if !j.Agents[d].Research.Done() {
			return types.PhaseResearch
		}
	}
	return types.PhaseSynthesis
}

func (t *Tracker) step(j types.Job) string {
	switch {
	case j.Status == types.JobCompleted:
		return "Evaluation complete"
	case j.Status == types.JobPending:
		return "Waiting to start"
	case j.FinalStatus == types.SubCompleted:
		return "Saving results"
	case j.FinalStatus == types.SubRunning:
		return "Writing final recommendation"
	case j.Phase == types.PhaseResearch:
		return "Researching " + strings.Join(pending(j, func(a types.AgentProgress) types.SubStatus { return a.Research }), ", ")
	}
	done := 0
	for _, d := range types.Domains {
		if j.Agents[d].Synthesis == types.SubCompleted {
			done++
		}
	}
	return fmt.Sprintf("Synthesizing reports (%d/%d done)", done, len(types.Domains))
}

// pending lists domains whose selected stage has not finished.
func pending(j types.Job, stage func(types.AgentProgress) types.SubStatus) []string {
	var out []string
	for _, d := range types.Domains {
		if !stage(j.Agents[d]).Done() {
			out = append(out, string(d))
		}
	}
	return out
}

func (t *Tracker) etaSeconds(j types.Job) int {
	elapsed := t.now().Sub(t.phaseStart)
	remaining := func(d time.Duration) time.Duration {
		if d -= elapsed; d < 0 {
			return 0
		}
		return d
	}

	var eta time.Duration
	switch {
	case j.Status == types.JobCompleted || j.FinalStatus == types.SubCompleted:
		eta = 0
	case t.finalActive:
		eta = remaining(t.eta.Final)
	case j.Phase == types.PhaseSynthesis:
		eta = remaining(t.eta.Synthesis) + t.eta.Final
	default:
		eta = remaining(t.eta.Research) + t.eta.Synthesis + t.eta.Final
	}
	return int(eta.Round(time.Second) / time.Second)
}
