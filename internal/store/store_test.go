// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/idea-engine/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{DSN: filepath.Join(t.TempDir(), "db", "ideas.db"), CacheSize: 8})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	// Strictly increasing clock so ordering by created_at is deterministic.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var tick int
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func TestIdeaRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	created, err := s.CreateIdea(ctx, "Dog walking app", "# Idea\nWalk dogs.")
	require.NoError(t, err)
	assert.Equal(t, types.IdeaDraft, created.Status)

	got, err := s.GetIdea(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "# Idea\nWalk dogs.", got.Document)
	assert.Nil(t, got.ScoreTotal)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func TestCreateIdeaRequiresTitle(t *testing.T) {
	s := testStore(t)
	_, err := s.CreateIdea(context.Background(), "  ", "doc")
	assert.Error(t, err)
}

func TestGetIdeaNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.GetIdea(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateIdeaAppliesResultAndInvalidatesCache(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	idea, err := s.CreateIdea(ctx, "t", "doc")
	require.NoError(t, err)

	// Prime the cache.
	_, err = s.GetIdea(ctx, idea.ID)
	require.NoError(t, err)

	result := types.EvaluationResult{
		MarketReport:         "m",
		PRD:                  "p",
		RiskAssessment:       "r",
		Summary:              "s",
		ScoreMarket:          8,
		ScoreBuildability:    7,
		ScoreBusiness:        6,
		ScoreTotal:           7,
		Recommendation:       types.RecommendGo,
		RecommendationReason: "why",
	}
	require.NoError(t, s.UpdateIdea(ctx, idea.ID, types.ResultPatch(result)))

	got, err := s.GetIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, types.IdeaEvaluated, got.Status)
	assert.Equal(t, "p", got.PRD)
	require.NotNil(t, got.ScoreTotal)
	assert.Equal(t, 7.0, *got.ScoreTotal)
	assert.Equal(t, types.RecommendGo, got.Recommendation)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestUpdateIdeaStatusOnlyKeepsResults(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	idea, err := s.CreateIdea(ctx, "t", "doc")
	require.NoError(t, err)

	require.NoError(t, s.UpdateIdea(ctx, idea.ID, types.ResultPatch(types.EvaluationResult{PRD: "kept"})))
	require.NoError(t, s.UpdateIdea(ctx, idea.ID, types.StatusPatch(types.IdeaDraft)))

	got, err := s.GetIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, types.IdeaDraft, got.Status)
	assert.Equal(t, "kept", got.PRD)
}

func TestUpdateIdeaNotFound(t *testing.T) {
	s := testStore(t)
	err := s.UpdateIdea(context.Background(), "missing", types.StatusPatch(types.IdeaDraft))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListIdeasNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	first, err := s.CreateIdea(ctx, "first", "a")
	require.NoError(t, err)
	second, err := s.CreateIdea(ctx, "second", "b")
	require.NoError(t, err)

	ideas, err := s.ListIdeas(ctx)
	require.NoError(t, err)
	require.Len(t, ideas, 2)
	assert.Equal(t, second.ID, ideas[0].ID)
	assert.Equal(t, first.ID, ideas[1].ID)
}

func TestCreateJobRejectsSecondActiveJob(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	idea, err := s.CreateIdea(ctx, "t", "doc")
	require.NoError(t, err)

	job, err := s.CreateJob(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobPending, job.Status)

	_, err = s.CreateJob(ctx, idea.ID)
	assert.ErrorIs(t, err, ErrJobActive)

	failed := types.JobFailed
	require.NoError(t, s.UpdateJob(ctx, job.ID, types.JobPatch{Status: &failed}))

	next, err := s.CreateJob(ctx, idea.ID)
	require.NoError(t, err)
	assert.NotEqual(t, job.ID, next.ID)
}

func TestUpdateJobPatchesOnlyNamedColumns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	idea, err := s.CreateIdea(ctx, "t", "doc")
	require.NoError(t, err)
	job, err := s.CreateJob(ctx, idea.ID)
	require.NoError(t, err)

	running := types.JobRunning
	started := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpdateJob(ctx, job.ID, types.JobPatch{Status: &running, StartedAt: &started}))
	require.NoError(t, s.UpdateJob(ctx, job.ID, types.JobPatch{
		Research: map[types.Domain]types.SubStatus{types.DomainMarket: types.SubCompleted},
	}))
	require.NoError(t, s.UpdateJob(ctx, job.ID, types.JobPatch{
		Synthesis: map[types.Domain]types.SubStatus{types.DomainProduct: types.SubRunning},
	}))
	step, eta := "Researching product, business", 120
	require.NoError(t, s.UpdateJob(ctx, job.ID, types.JobPatch{Step: &step, ETASeconds: &eta}))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobRunning, got.Status)
	require.NotNil(t, got.StartedAt)
	assert.True(t, started.Equal(*got.StartedAt))
	assert.Nil(t, got.CompletedAt)
	assert.Equal(t, types.SubCompleted, got.Agents[types.DomainMarket].Research)
	assert.Equal(t, types.SubPending, got.Agents[types.DomainProduct].Research)
	assert.Equal(t, types.SubRunning, got.Agents[types.DomainProduct].Synthesis)
	assert.Equal(t, types.SubPending, got.FinalStatus)
	assert.Equal(t, step, got.Step)
	assert.Equal(t, 120, got.ETASeconds)
}

func TestUpdateJobNotFound(t *testing.T) {
	s := testStore(t)
	failed := types.JobFailed
	err := s.UpdateJob(context.Background(), "missing", types.JobPatch{Status: &failed})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLatestJob(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	idea, err := s.CreateIdea(ctx, "t", "doc")
	require.NoError(t, err)

	_, err = s.LatestJob(ctx, idea.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := s.CreateJob(ctx, idea.ID)
	require.NoError(t, err)
	done := types.JobCompleted
	require.NoError(t, s.UpdateJob(ctx, first.ID, types.JobPatch{Status: &done}))
	second, err := s.CreateJob(ctx, idea.ID)
	require.NoError(t, err)

	latest, err := s.LatestJob(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestExport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	idea, err := s.CreateIdea(ctx, "with job", "doc")
	require.NoError(t, err)
	_, err = s.CreateJob(ctx, idea.ID)
	require.NoError(t, err)
	_, err = s.CreateIdea(ctx, "without job", "doc")
	require.NoError(t, err)

	var yb bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, &yb))
	var fromYAML []ExportEntry
	require.NoError(t, yaml.Unmarshal(yb.Bytes(), &fromYAML))
	require.Len(t, fromYAML, 2)
	assert.Equal(t, "without job", fromYAML[0].Idea.Title)
	assert.Nil(t, fromYAML[0].Job)
	require.NotNil(t, fromYAML[1].Job)
	assert.Equal(t, types.JobPending, fromYAML[1].Job.Status)

	var jb bytes.Buffer
	require.NoError(t, s.ExportJSON(ctx, &jb))
	var fromJSON []ExportEntry
	require.NoError(t, json.Unmarshal(jb.Bytes(), &fromJSON))
	assert.Len(t, fromJSON, 2)
}

func TestRebindDollar(t *testing.T) {
	assert.Equal(t, "UPDATE x SET a = $1, b = $2 WHERE id = $3", rebindDollar("UPDATE x SET a = ?, b = ? WHERE id = ?"))
	assert.Equal(t, "SELECT 1", rebindDollar("SELECT 1"))
}

func TestIsPostgres(t *testing.T) {
	assert.True(t, isPostgres("postgres://u@h/db"))
	assert.True(t, isPostgres("postgresql://u@h/db"))
	assert.False(t, isPostgres("data/idea-engine.db"))
}
