// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// IdeaStatus is the lifecycle state of an idea.
type IdeaStatus string

const (
	IdeaDraft      IdeaStatus = "draft"
	IdeaEvaluating IdeaStatus = "evaluating"
	IdeaEvaluated  IdeaStatus = "evaluated"
)

// Idea is a product idea and, once evaluated, its results.
type Idea struct {
	ID       string     `json:"id" yaml:"id"`
	Title    string     `json:"title" yaml:"title"`
	Status   IdeaStatus `json:"status" yaml:"status"`
	Document string     `json:"document" yaml:"document"`

	MarketReport         string         `json:"market_report,omitempty" yaml:"market_report,omitempty"`
	PRD                  string         `json:"prd,omitempty" yaml:"prd,omitempty"`
	RiskAssessment       string         `json:"risk_assessment,omitempty" yaml:"risk_assessment,omitempty"`
	Summary              string         `json:"evaluation_summary,omitempty" yaml:"evaluation_summary,omitempty"`
	ScoreMarket          *float64       `json:"score_market,omitempty" yaml:"score_market,omitempty"`
	ScoreBuildability    *float64       `json:"score_buildability,omitempty" yaml:"score_buildability,omitempty"`
	ScoreBusiness        *float64       `json:"score_business,omitempty" yaml:"score_business,omitempty"`
	ScoreTotal           *float64       `json:"score_total,omitempty" yaml:"score_total,omitempty"`
	Recommendation       Recommendation `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
	RecommendationReason string         `json:"recommendation_reason,omitempty" yaml:"recommendation_reason,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// IdeaPatch is a partial update of an idea. Nil fields are left untouched.
type IdeaPatch struct {
	Title                *string
	Status               *IdeaStatus
	Document             *string
	MarketReport         *string
	PRD                  *string
	RiskAssessment       *string
	Summary              *string
	ScoreMarket          *float64
	ScoreBuildability    *float64
	ScoreBusiness        *float64
	ScoreTotal           *float64
	Recommendation       *Recommendation
	RecommendationReason *string
}

// ResultPatch returns the patch that stores r on an idea and marks it evaluated.
func ResultPatch(r EvaluationResult) IdeaPatch {
	status := IdeaEvaluated
	return IdeaPatch{
		Status:               &status,
		MarketReport:         &r.MarketReport,
		PRD:                  &r.PRD,
		RiskAssessment:       &r.RiskAssessment,
		Summary:              &r.Summary,
		ScoreMarket:          &r.ScoreMarket,
		ScoreBuildability:    &r.ScoreBuildability,
		ScoreBusiness:        &r.ScoreBusiness,
		ScoreTotal:           &r.ScoreTotal,
		Recommendation:       &r.Recommendation,
		RecommendationReason: &r.RecommendationReason,
	}
}

// StatusPatch returns a patch that only changes the status.
func StatusPatch(s IdeaStatus) IdeaPatch {
	return IdeaPatch{Status: &s}
}
