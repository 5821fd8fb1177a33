// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Domain identifies one of the three analyses run per idea.
type Domain string

const (
	DomainMarket   Domain = "market"
	DomainProduct  Domain = "product"
	DomainBusiness Domain = "business"
)

// Domains lists every domain in report order.
var Domains = []Domain{DomainMarket, DomainProduct, DomainBusiness}

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool {
	switch d {
	case DomainMarket, DomainProduct, DomainBusiness:
		return true
	}
	return false
}

// Citation is a source URL returned by the research provider.
type Citation struct {
	URL     string `json:"url" yaml:"url"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

// Usage reports token consumption for one provider call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens" yaml:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens" yaml:"completion_tokens"`
	TotalTokens      int `json:"total_tokens" yaml:"total_tokens"`
}

// ProviderResponse is the normalized result of a provider call.
type ProviderResponse struct {
	Content   string
	Model     string
	Usage     Usage
	Citations []Citation
}

// FindingCategory classifies a research section by its heading.
type FindingCategory string

const (
	CategoryMarketSize      FindingCategory = "market_size"
	CategoryCompetitors     FindingCategory = "competitors"
	CategoryTrends          FindingCategory = "trends"
	CategoryTargetAudience  FindingCategory = "target_audience"
	CategoryPricing         FindingCategory = "pricing"
	CategoryTechnology      FindingCategory = "technology"
	CategoryDataSources     FindingCategory = "data_sources"
	CategorySimilarProducts FindingCategory = "similar_products"
	CategoryIntegrations    FindingCategory = "integrations"
	CategoryBusinessModel   FindingCategory = "business_model"
	CategoryGoToMarket      FindingCategory = "go_to_market"
	CategoryRisks           FindingCategory = "risks"
	CategoryScaling         FindingCategory = "scaling"
	CategoryOther           FindingCategory = "other"
)

// Confidence grades how well a finding is supported by sources.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ResearchFinding is one headed section of a research report.
type ResearchFinding struct {
	Category   FindingCategory `json:"category" yaml:"category"`
	Heading    string          `json:"heading" yaml:"heading"`
	Content    string          `json:"content" yaml:"content"`
	Citations  []Citation      `json:"citations,omitempty" yaml:"citations,omitempty"`
	Confidence Confidence      `json:"confidence" yaml:"confidence"`
}

// CoverageLevel summarizes how many expected categories a report covers.
type CoverageLevel string

const (
	CoverageComprehensive CoverageLevel = "comprehensive"
	CoveragePartial       CoverageLevel = "partial"
	CoverageLimited       CoverageLevel = "limited"
)

// Coverage records which expected categories a report covered.
type Coverage struct {
	CategoriesCovered []FindingCategory `json:"categories_covered" yaml:"categories_covered"`
	MissingCategories []FindingCategory `json:"missing_categories" yaml:"missing_categories"`
	Overall           CoverageLevel     `json:"overall" yaml:"overall"`
}

// ParsedResearch is the structured form of a research report.
type ParsedResearch struct {
	Findings  []ResearchFinding `json:"findings" yaml:"findings"`
	Citations []Citation        `json:"citations" yaml:"citations"`
	Coverage  Coverage          `json:"coverage" yaml:"coverage"`
}

// QualityLevel grades parsed research.
type QualityLevel string

const (
	QualityGood     QualityLevel = "good"
	QualityModerate QualityLevel = "moderate"
	QualityPoor     QualityLevel = "poor"
)

// QualityMetrics are the counts behind a QualityAssessment.
type QualityMetrics struct {
	FindingsCount          int     `json:"findings_count" yaml:"findings_count"`
	CitationsCount         int     `json:"citations_count" yaml:"citations_count"`
	AvgCitationsPerFinding float64 `json:"avg_citations_per_finding" yaml:"avg_citations_per_finding"`
	CoverageScore          float64 `json:"coverage_score" yaml:"coverage_score"`
}

// QualityAssessment is the verdict on one research report.
type QualityAssessment struct {
	Overall     QualityLevel   `json:"overall" yaml:"overall"`
	Issues      []string       `json:"issues" yaml:"issues"`
	Suggestions []string       `json:"suggestions" yaml:"suggestions"`
	Metrics     QualityMetrics `json:"metrics" yaml:"metrics"`
}

// ResearchResult is the output of the research stage for one domain.
type ResearchResult struct {
	Parsed            ParsedResearch `json:"parsed" yaml:"parsed"`
	RawContent        string         `json:"raw_content" yaml:"raw_content"`
	Model             string         `json:"model" yaml:"model"`
	TokensUsed        int            `json:"tokens_used" yaml:"tokens_used"`
	SearchesPerformed int            `json:"searches_performed" yaml:"searches_performed"`
	Duration          time.Duration  `json:"duration" yaml:"duration"`
	Cost              float64        `json:"cost" yaml:"cost"`
}
