// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SynthesisResult is an analytical report with its extracted score.
type SynthesisResult struct {
	Content  string        `json:"content" yaml:"content"`
	Score    float64       `json:"score" yaml:"score"`
	Model    string        `json:"model" yaml:"model"`
	Usage    Usage         `json:"usage" yaml:"usage"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Cost     float64       `json:"cost" yaml:"cost"`
}

// AgentResult is the combined output of one domain agent. Research is nil
// when the agent ran in legacy mode.
type AgentResult struct {
	Domain        Domain             `json:"domain" yaml:"domain"`
	Research      *ResearchResult    `json:"research,omitempty" yaml:"research,omitempty"`
	Quality       *QualityAssessment `json:"quality,omitempty" yaml:"quality,omitempty"`
	Synthesis     SynthesisResult    `json:"synthesis" yaml:"synthesis"`
	TotalDuration time.Duration      `json:"total_duration" yaml:"total_duration"`
	TotalCost     float64            `json:"total_cost" yaml:"total_cost"`
}

// ResearchCost returns the research share of the agent cost.
func (r AgentResult) ResearchCost() float64 {
	if r.Research == nil {
		return 0
	}
	return r.Research.Cost
}

// FanOutResult holds the three agent results of one evaluation.
type FanOutResult struct {
	Market        AgentResult   `json:"market" yaml:"market"`
	Product       AgentResult   `json:"product" yaml:"product"`
	Business      AgentResult   `json:"business" yaml:"business"`
	TotalDuration time.Duration `json:"total_duration" yaml:"total_duration"`
	TotalCost     float64       `json:"total_cost" yaml:"total_cost"`
}

// Agents returns the three results in domain order.
func (f FanOutResult) Agents() []AgentResult {
	return []AgentResult{f.Market, f.Product, f.Business}
}

// Recommendation is the final verdict on an idea.
type Recommendation string

const (
	RecommendGo     Recommendation = "go"
	RecommendHold   Recommendation = "hold"
	RecommendReject Recommendation = "reject"
)

// Label returns the phrase used in reports for r.
func (r Recommendation) Label() string {
	switch r {
	case RecommendGo:
		return "GÅ VIDERE"
	case RecommendHold:
		return "AVVENT"
	case RecommendReject:
		return "FORKAST"
	}
	return string(r)
}

// EvaluationMetrics breaks down what an evaluation cost.
type EvaluationMetrics struct {
	TotalCost     float64            `json:"total_cost" yaml:"total_cost"`
	ResearchCost  float64            `json:"research_cost" yaml:"research_cost"`
	SynthesisCost float64            `json:"synthesis_cost" yaml:"synthesis_cost"`
	PerDomainCost map[Domain]float64 `json:"per_domain_cost" yaml:"per_domain_cost"`
	Duration      time.Duration      `json:"duration" yaml:"duration"`
}

// EvaluationResult is everything an evaluation writes back to the idea.
type EvaluationResult struct {
	MarketReport         string            `json:"market_report" yaml:"market_report"`
	PRD                  string            `json:"prd" yaml:"prd"`
	RiskAssessment       string            `json:"risk_assessment" yaml:"risk_assessment"`
	Summary              string            `json:"evaluation_summary" yaml:"evaluation_summary"`
	ScoreMarket          float64           `json:"score_market" yaml:"score_market"`
	ScoreBuildability    float64           `json:"score_buildability" yaml:"score_buildability"`
	ScoreBusiness        float64           `json:"score_business" yaml:"score_business"`
	ScoreTotal           float64           `json:"score_total" yaml:"score_total"`
	Recommendation       Recommendation    `json:"recommendation" yaml:"recommendation"`
	RecommendationReason string            `json:"recommendation_reason" yaml:"recommendation_reason"`
	Mode                 EvaluationMode    `json:"mode" yaml:"mode"`
	Metrics              EvaluationMetrics `json:"metrics" yaml:"metrics"`
}
