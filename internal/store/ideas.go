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

const ideaColumns = `id, title, status, document, market_report, prd, risk_assessment,
	evaluation_summary, score_market, score_buildability, score_business, score_total,
	recommendation, recommendation_reason, created_at, updated_at`

// CreateIdea stores a new draft idea.
func (s *Store) CreateIdea(ctx context.Context, title, document string) (types.Idea, error) {
	if strings.TrimSpace(title) == "" {
		return types.Idea{}, errors.New("idea title is required")
	}
	now := s.now().UTC()
	idea := types.Idea{
		ID:        uuid.NewString(),
		Title:     title,
		Status:    types.IdeaDraft,
		Document:  document,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO ideas (id, title, status, document, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`),
		idea.ID, idea.Title, string(idea.Status), idea.Document, formatTime(now), formatTime(now),
	)
	if err != nil {
		return types.Idea{}, fmt.Errorf("inserting idea: %w", err)
	}
	return idea, nil
}

// GetIdea loads an idea by ID, serving repeat reads from the cache.
func (s *Store) GetIdea(ctx context.Context, id string) (types.Idea, error) {
	if s.cache != nil {
		if idea, ok := s.cache.Get(id); ok {
			return idea, nil
		}
	}

	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+ideaColumns+` FROM ideas WHERE id = ?`), id)
	idea, err := scanIdea(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Idea{}, fmt.Errorf("idea %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.Idea{}, fmt.Errorf("loading idea %s: %w", id, err)
	}

	if s.cache != nil {
		s.cache.Add(id, idea)
	}
	return idea, nil
}

// ListIdeas returns all ideas, newest first.
func (s *Store) ListIdeas(ctx context.Context) ([]types.Idea, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+ideaColumns+` FROM ideas ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing ideas: %w", err)
	}
	defer rows.Close()

	var ideas []types.Idea
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning idea: %w", err)
		}
		ideas = append(ideas, idea)
	}
	return ideas, rows.Err()
}

// UpdateIdea writes the non-nil fields of p and bumps updated_at.
func (s *Store) UpdateIdea(ctx context.Context, id string, p types.IdeaPatch) error {
	var set setList
	if p.Title != nil {
		set.add("title", *p.Title)
	}
	if p.Status != nil {
		set.add("status", string(*p.Status))
	}
	if p.Document != nil {
		set.add("document", *p.Document)
	}
	if p.MarketReport != nil {
		set.add("market_report", *p.MarketReport)
	}
	if p.PRD != nil {
		set.add("prd", *p.PRD)
	}
	if p.RiskAssessment != nil {
		set.add("risk_assessment", *p.RiskAssessment)
	}
	if p.Summary != nil {
		set.add("evaluation_summary", *p.Summary)
	}
	if p.ScoreMarket != nil {
		set.add("score_market", *p.ScoreMarket)
	}
	if p.ScoreBuildability != nil {
		set.add("score_buildability", *p.ScoreBuildability)
	}
	if p.ScoreBusiness != nil {
		set.add("score_business", *p.ScoreBusiness)
	}
	if p.ScoreTotal != nil {
		set.add("score_total", *p.ScoreTotal)
	}
	if p.Recommendation != nil {
		set.add("recommendation", string(*p.Recommendation))
	}
	if p.RecommendationReason != nil {
		set.add("recommendation_reason", *p.RecommendationReason)
	}
	if set.empty() {
		return nil
	}
	set.add("updated_at", formatTime(s.now()))

	query := `UPDATE ideas SET ` + strings.Join(set.cols, ", ") + ` WHERE id = ?`
	res, err := s.db.ExecContext(ctx, s.rebind(query), append(set.args, id)...)
	if s.cache != nil {
		s.cache.Remove(id)
	}
	if err != nil {
		return fmt.Errorf("updating idea %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("idea %s: %w", id, ErrNotFound)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanIdea(sc scanner) (types.Idea, error) {
	var idea types.Idea
	var status, created, updated string
	var market, prd, risk, summary, rec, why sql.NullString
	var scoreM, scoreB, scoreBiz, scoreT sql.NullFloat64
	err := sc.Scan(&idea.ID, &idea.Title, &status, &idea.Document,
		&market, &prd, &risk, &summary,
		&scoreM, &scoreB, &scoreBiz, &scoreT,
		&rec, &why, &created, &updated)
	if err != nil {
		return types.Idea{}, err
	}

	idea.Status = types.IdeaStatus(status)
	idea.MarketReport = market.String
	idea.PRD = prd.String
	idea.RiskAssessment = risk.String
	idea.Summary = summary.String
	idea.ScoreMarket = nullFloat(scoreM)
	idea.ScoreBuildability = nullFloat(scoreB)
	idea.ScoreBusiness = nullFloat(scoreBiz)
	idea.ScoreTotal = nullFloat(scoreT)
	idea.Recommendation = types.Recommendation(rec.String)
	idea.RecommendationReason = why.String

	if idea.CreatedAt, err = parseTime(created); err != nil {
		return types.Idea{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if idea.UpdatedAt, err = parseTime(updated); err != nil {
		return types.Idea{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return idea, nil
}
