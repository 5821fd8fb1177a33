// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/idea-engine/pkg/types"
)

// memStore records every patch and applies it to a single job.
type memStore struct {
	mu      sync.Mutex
	job     types.Job
	patches []types.JobPatch
	err     error
}

func (m *memStore) UpdateJob(_ context.Context, id string, p types.JobPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if id != m.job.ID {
		return errors.New("unknown job")
	}
	m.patches = append(m.patches, p)
	m.job = p.Apply(m.job)
	return nil
}

// clock is a manually advanced time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

var testETA = types.ETAConfig{Research: 3 * time.Minute, Synthesis: 45 * time.Second, Final: 30 * time.Second}

func newTestTracker(t *testing.T) (*Tracker, *memStore, *clock) {
	t.Helper()
	job := types.Job{ID: "job-1", IdeaID: "idea-1", Status: types.JobPending}
	store := &memStore{job: job}
	c := &clock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	return NewTracker(store, job, testETA, WithClock(c.now)), store, c
}

func TestTracker_FullLifecycle(t *testing.T) {
	tr, store, c := newTestTracker(t)

	require.NoError(t, tr.Start())
	j := store.job
	assert.Equal(t, types.JobRunning, j.Status)
	assert.Equal(t, types.PhaseResearch, j.Phase)
	require.NotNil(t, j.StartedAt)
	assert.Equal(t, 255, j.ETASeconds)
	assert.Equal(t, "Researching market, product, business", j.Step)

	for _, d := range types.Domains {
		require.NoError(t, tr.ResearchStarted(d))
	}
	c.advance(time.Minute)
	require.NoError(t, tr.ResearchDone(types.DomainMarket))
	require.NoError(t, tr.ResearchDone(types.DomainProduct))
	assert.Equal(t, types.PhaseResearch, store.job.Phase)
	assert.Equal(t, "Researching business", store.job.Step)
	assert.Equal(t, 195, store.job.ETASeconds)

	require.NoError(t, tr.ResearchDone(types.DomainBusiness))
	assert.Equal(t, types.PhaseSynthesis, store.job.Phase)
	assert.Equal(t, 75, store.job.ETASeconds)

	for _, d := range types.Domains {
		require.NoError(t, tr.SynthesisStarted(d))
		require.NoError(t, tr.SynthesisDone(d))
	}
	assert.Equal(t, "Synthesizing reports (3/3 done)", store.job.Step)

	require.NoError(t, tr.FinalStarted())
	assert.Equal(t, types.SubRunning, store.job.FinalStatus)
	assert.Equal(t, 30, store.job.ETASeconds)
	require.NoError(t, tr.FinalDone())
	require.NoError(t, tr.Complete())

	j = store.job
	assert.Equal(t, types.JobCompleted, j.Status)
	assert.Equal(t, types.PhaseComplete, j.Phase)
	assert.Equal(t, 0, j.ETASeconds)
	require.NotNil(t, j.CompletedAt)
	for _, d := range types.Domains {
		assert.Equal(t, types.AgentProgress{Research: types.SubCompleted, Synthesis: types.SubCompleted}, j.Agents[d])
	}
	assert.Equal(t, j, tr.Job())
}

func TestTracker_PatchesOnlyTouchChangedFields(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	require.NoError(t, tr.Start())
	require.NoError(t, tr.ResearchStarted(types.DomainProduct))

	last := store.patches[len(store.patches)-1]
	assert.Nil(t, last.Status)
	assert.Nil(t, last.Phase)
	assert.Empty(t, last.Synthesis)
	assert.Equal(t, map[types.Domain]types.SubStatus{types.DomainProduct: types.SubRunning}, last.Research)
}

func TestTracker_TerminalRejectsTransitions(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	require.NoError(t, tr.Start())
	require.NoError(t, tr.Fail(errors.New("market research: boom")))

	assert.Equal(t, types.JobFailed, store.job.Status)
	assert.Equal(t, "market research: boom", store.job.Error)
	assert.NotNil(t, store.job.CompletedAt)

	n := len(store.patches)
	assert.ErrorIs(t, tr.ResearchDone(types.DomainMarket), ErrTerminal)
	assert.ErrorIs(t, tr.Complete(), ErrTerminal)
	assert.Len(t, store.patches, n)
}

func TestTracker_StartTwice(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	require.NoError(t, tr.Start())
	assert.Error(t, tr.Start())
}

func TestTracker_AgentFailedMarksRunningStage(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	require.NoError(t, tr.Start())

	require.NoError(t, tr.ResearchStarted(types.DomainMarket))
	require.NoError(t, tr.AgentFailed(types.DomainMarket, errors.New("x")))
	assert.Equal(t, types.SubFailed, store.job.Agents[types.DomainMarket].Research)

	require.NoError(t, tr.ResearchDone(types.DomainProduct))
	require.NoError(t, tr.SynthesisStarted(types.DomainProduct))
	require.NoError(t, tr.AgentFailed(types.DomainProduct, errors.New("y")))
	assert.Equal(t, types.SubFailed, store.job.Agents[types.DomainProduct].Synthesis)
	assert.Equal(t, types.SubCompleted, store.job.Agents[types.DomainProduct].Research)
}

func TestTracker_LegacySkipsResearchPhase(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	require.NoError(t, tr.Start())
	for _, d := range types.Domains {
		require.NoError(t, tr.ResearchSkipped(d))
	}
	assert.Equal(t, types.PhaseSynthesis, store.job.Phase)
	assert.Equal(t, types.SubSkipped, store.job.Agents[types.DomainBusiness].Research)
}

func TestTracker_ResetForRerun(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	require.NoError(t, tr.Start())
	require.NoError(t, tr.ResearchStarted(types.DomainMarket))
	require.NoError(t, tr.AgentFailed(types.DomainMarket, errors.New("503")))

	require.NoError(t, tr.Reset())
	assert.Equal(t, types.JobRunning, store.job.Status)
	assert.Equal(t, types.PhaseResearch, store.job.Phase)
	assert.Equal(t, types.SubPending, store.job.Agents[types.DomainMarket].Research)
}

func TestTracker_StoreErrorLeavesMirrorUnchanged(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	require.NoError(t, tr.Start())
	store.err = errors.New("disk full")

	err := tr.ResearchStarted(types.DomainMarket)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, types.SubStatus(""), tr.Job().Agents[types.DomainMarket].Research)
}

func TestTracker_ConcurrentAgents(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	require.NoError(t, tr.Start())

	var wg sync.WaitGroup
	for _, d := range types.Domains {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, tr.ResearchStarted(d))
			assert.NoError(t, tr.ResearchDone(d))
			assert.NoError(t, tr.SynthesisStarted(d))
			assert.NoError(t, tr.SynthesisDone(d))
		}()
	}
	wg.Wait()

	for _, d := range types.Domains {
		assert.Equal(t, types.AgentProgress{Research: types.SubCompleted, Synthesis: types.SubCompleted}, store.job.Agents[d])
	}
	assert.Equal(t, types.PhaseSynthesis, store.job.Phase)
}
