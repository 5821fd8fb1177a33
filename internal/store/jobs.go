// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/idea-engine/pkg/types"
)

const jobColumns = `id, idea_id, status, phase,
	market_research_status, product_research_status, business_research_status,
	market_synthesis_status, product_synthesis_status, business_synthesis_status,
	notes_synthesizer_status, current_step_description, estimated_time_remaining,
	error, created_at, started_at, completed_at`

func researchColumn(d types.Domain) string  { return string(d) + "_research_status" }
func synthesisColumn(d types.Domain) string { return string(d) + "_synthesis_status" }

// CreateJob inserts a pending job for ideaID. It fails with ErrJobActive if
// the idea already has a pending or running job.
func (s *Store) CreateJob(ctx context.Context, ideaID string) (types.Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Job{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var active int
	err = tx.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*) FROM evaluation_jobs WHERE idea_id = ? AND status IN (?, ?)`),
		ideaID, string(types.JobPending), string(types.JobRunning),
	).Scan(&active)
	if err != nil {
		return types.Job{}, fmt.Errorf("checking active jobs: %w", err)
	}
	if active > 0 {
		return types.Job{}, fmt.Errorf("idea %s: %w", ideaID, ErrJobActive)
	}

	now := s.now().UTC()
	job := types.Job{
		ID:          uuid.NewString(),
		IdeaID:      ideaID,
		Status:      types.JobPending,
		Phase:       types.PhaseResearch,
		Agents:      make(map[types.Domain]types.AgentProgress, len(types.Domains)),
		FinalStatus: types.SubPending,
		CreatedAt:   now,
	}
	for _, d := range types.Domains {
		job.Agents[d] = types.AgentProgress{Research: types.SubPending, Synthesis: types.SubPending}
	}

	pending := string(types.SubPending)
	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO evaluation_jobs (
			id, idea_id, status, phase,
			market_research_status, product_research_status, business_research_status,
			market_synthesis_status, product_synthesis_status, business_synthesis_status,
			notes_synthesizer_status, estimated_time_remaining, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		job.ID, ideaID, string(job.Status), string(job.Phase),
		pending, pending, pending, pending, pending, pending, pending,
		0, formatTime(now),
	)
	if err != nil {
		return types.Job{}, fmt.Errorf("inserting job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return types.Job{}, fmt.Errorf("committing job: %w", err)
	}
	return job, nil
}

// UpdateJob writes the fields present in p. Domains absent from the
// research and synthesis maps keep their stored status.
func (s *Store) UpdateJob(ctx context.Context, id string, p types.JobPatch) error {
	if p.Empty() {
		return nil
	}

	var set setList
	if p.Status != nil {
		set.add("status", string(*p.Status))
	}
	if p.Phase != nil {
		set.add("phase", string(*p.Phase))
	}
	for _, d := range types.Domains {
		if st, ok := p.Research[d]; ok {
			set.add(researchColumn(d), string(st))
		}
		if st, ok := p.Synthesis[d]; ok {
			set.add(synthesisColumn(d), string(st))
		}
	}
	if p.FinalStatus != nil {
		set.add("notes_synthesizer_status", string(*p.FinalStatus))
	}
	if p.Step != nil {
		set.add("current_step_description", *p.Step)
	}
	if p.ETASeconds != nil {
		set.add("estimated_time_remaining", *p.ETASeconds)
	}
	if p.Error != nil {
		set.add("error", *p.Error)
	}
	if p.StartedAt != nil {
		set.add("started_at", formatTime(*p.StartedAt))
	}
	if p.CompletedAt != nil {
		set.add("completed_at", formatTime(*p.CompletedAt))
	}
	if set.empty() {
		return nil
	}

	query := `UPDATE evaluation_jobs SET ` + strings.Join(set.cols, ", ") + ` WHERE id = ?`
	res, err := s.db.ExecContext(ctx, s.rebind(query), append(set.args, id)...)
	if err != nil {
		return fmt.Errorf("updating job %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetJob loads a job by ID.
func (s *Store) GetJob(ctx context.Context, id string) (types.Job, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+jobColumns+` FROM evaluation_jobs WHERE id = ?`), id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Job{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.Job{}, fmt.Errorf("loading job %s: %w", id, err)
	}
	return job, nil
}

// LatestJob returns the most recently created job for ideaID.
func (s *Store) LatestJob(ctx context.Context, ideaID string) (types.Job, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+jobColumns+` FROM evaluation_jobs
		WHERE idea_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`), ideaID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Job{}, fmt.Errorf("jobs for idea %s: %w", ideaID, ErrNotFound)
	}
	if err != nil {
		return types.Job{}, fmt.Errorf("loading latest job for idea %s: %w", ideaID, err)
	}
	return job, nil
}

func scanJob(sc scanner) (types.Job, error) {
	var job types.Job
	var status, created string
	var phase, step, errMsg, started, completed, final sql.NullString
	var research, synthesis [3]sql.NullString
	var eta sql.NullInt64

	err := sc.Scan(&job.ID, &job.IdeaID, &status, &phase,
		&research[0], &research[1], &research[2],
		&synthesis[0], &synthesis[1], &synthesis[2],
		&final, &step, &eta, &errMsg, &created, &started, &completed)
	if err != nil {
		return types.Job{}, err
	}

	job.Status = types.JobStatus(status)
	job.Phase = types.Phase(phase.String)
	job.FinalStatus = types.SubStatus(final.String)
	job.Step = step.String
	job.ETASeconds = int(eta.Int64)
	job.Error = errMsg.String

	// Column order above follows types.Domains.
	job.Agents = make(map[types.Domain]types.AgentProgress, len(types.Domains))
	for i, d := range types.Domains {
		job.Agents[d] = types.AgentProgress{
			Research:  types.SubStatus(research[i].String),
			Synthesis: types.SubStatus(synthesis[i].String),
		}
	}

	if job.CreatedAt, err = parseTime(created); err != nil {
		return types.Job{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if job.StartedAt, err = nullTime(started); err != nil {
		return types.Job{}, fmt.Errorf("parsing started_at: %w", err)
	}
	if job.CompletedAt, err = nullTime(completed); err != nil {
		return types.Job{}, fmt.Errorf("parsing completed_at: %w", err)
	}
	return job, nil
}
