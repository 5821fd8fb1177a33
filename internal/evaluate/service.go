// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pdiddy/idea-engine/internal/fault"
	"github.com/pdiddy/idea-engine/internal/jobs"
	"github.com/pdiddy/idea-engine/internal/store"
	"github.com/pdiddy/idea-engine/pkg/types"
)

var (
	// ErrJobActive is returned when the idea already has a pending or
	// running evaluation.
	ErrJobActive = store.ErrJobActive

	// ErrEmptyDocument is returned for an idea without document text.
	ErrEmptyDocument = errors.New("idea has no document to evaluate")
)

// Store is the persistence the service needs.
type Store interface {
	GetIdea(ctx context.Context, id string) (types.Idea, error)
	UpdateIdea(ctx context.Context, id string, p types.IdeaPatch) error
	CreateJob(ctx context.Context, ideaID string) (types.Job, error)
	UpdateJob(ctx context.Context, id string, p types.JobPatch) error
	LatestJob(ctx context.Context, ideaID string) (types.Job, error)
}

// Runner runs the evaluation pipeline. *Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, document string, mode types.EvaluationMode, progress Progress) (types.EvaluationResult, error)
}

// Service evaluates stored ideas and keeps their job records current.
type Service struct {
	store    Store
	pipeline Runner
	cfg      types.EvaluationConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewService returns a service. A nil logger uses slog.Default.
func NewService(s Store, pipeline Runner, cfg types.EvaluationConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, pipeline: pipeline, cfg: cfg, logger: logger, now: time.Now}
}

// Evaluate runs a full evaluation of ideaID. On success the results are
// stored on the idea and the job is completed last. On failure the job is
// marked failed and the idea goes back to draft.
func (s *Service) Evaluate(ctx context.Context, ideaID string) (types.EvaluationResult, error) {
	idea, err := s.store.GetIdea(ctx, ideaID)
	if err != nil {
		return types.EvaluationResult{}, err
	}
	if strings.TrimSpace(idea.Document) == "" {
		return types.EvaluationResult{}, fmt.Errorf("idea %s: %w", ideaID, ErrEmptyDocument)
	}

	latest, err := s.store.LatestJob(ctx, ideaID)
	switch {
	case err == nil && latest.Status.Active():
		return types.EvaluationResult{}, fmt.Errorf("idea %s has job %s: %w", ideaID, latest.ID, ErrJobActive)
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return types.EvaluationResult{}, err
	}

	job, err := s.store.CreateJob(ctx, ideaID)
	if err != nil {
		return types.EvaluationResult{}, err
	}
	logger := s.logger.With("idea", ideaID, "job", job.ID)
	tracker := jobs.NewTracker(s.store, job, s.cfg.ETA, jobs.WithLogger(logger), jobs.WithClock(s.now))

	if err := tracker.Start(); err != nil {
		return types.EvaluationResult{}, s.fail(ctx, logger, ideaID, tracker, err)
	}
	if err := s.store.UpdateIdea(ctx, ideaID, types.StatusPatch(types.IdeaEvaluating)); err != nil {
		return types.EvaluationResult{}, s.fail(ctx, logger, ideaID, tracker, err)
	}

	mode := s.cfg.Mode
	logger.Info("evaluation started", "mode", mode, "failure_mode", s.cfg.FailureMode)
	res, err := s.pipeline.Run(ctx, idea.Document, mode, tracker)
	if err != nil && s.shouldFallBack(mode, err) {
		logger.Warn("research unavailable, retrying in legacy mode", "error", err)
		if rerr := tracker.Reset(); rerr != nil {
			return types.EvaluationResult{}, s.fail(ctx, logger, ideaID, tracker, rerr)
		}
		mode = types.ModeLegacy
		res, err = s.pipeline.Run(ctx, idea.Document, mode, tracker)
	}
	if err != nil {
		return types.EvaluationResult{}, s.fail(ctx, logger, ideaID, tracker, err)
	}

	if err := s.store.UpdateIdea(ctx, ideaID, types.ResultPatch(res)); err != nil {
		return types.EvaluationResult{}, s.fail(ctx, logger, ideaID, tracker, fmt.Errorf("saving results: %w", err))
	}
	if err := tracker.Complete(); err != nil {
		return types.EvaluationResult{}, s.fail(ctx, logger, ideaID, tracker, fmt.Errorf("completing job %s: %w", job.ID, err))
	}

	logger.Info("evaluation completed",
		"mode", mode,
		"score_total", res.ScoreTotal,
		"recommendation", res.Recommendation.Label(),
		"cost", res.Metrics.TotalCost)
	return res, nil
}

func (s *Service) shouldFallBack(mode types.EvaluationMode, err error) bool {
	return s.cfg.FallbackToLegacy && mode == types.ModeTwoStep && errors.Is(err, fault.ErrResearchUnavailable)
}

// fail records cause on the job and reverts the idea to draft. The writes use
// a context that survives cancellation of ctx. It returns cause.
func (s *Service) fail(ctx context.Context, logger *slog.Logger, ideaID string, tracker *jobs.Tracker, cause error) error {
	logger.Error("evaluation failed", "kind", fault.KindOf(cause), "error", cause)

	wctx := context.WithoutCancel(ctx)
	if err := tracker.Fail(cause); err != nil {
		logger.Error("marking job failed", "error", err)
	}
	if err := s.store.UpdateIdea(wctx, ideaID, types.StatusPatch(types.IdeaDraft)); err != nil {
		logger.Error("reverting idea status", "error", err)
	}
	return cause
}

// Status returns the latest job of ideaID.
func (s *Service) Status(ctx context.Context, ideaID string) (types.Job, error) {
	return s.store.LatestJob(ctx, ideaID)
}
