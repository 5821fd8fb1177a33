// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"fmt"

	"github.com/pdiddy/idea-engine/pkg/types"
)

const (
	minFindings  = 3
	minCitations = 5
)

// AssessQuality grades parsed research. It is pure: the same input always
// yields the same assessment.
func AssessQuality(p types.ParsedResearch) types.QualityAssessment {
	issues := []string{}
	suggestions := []string{}

	findings := len(p.Findings)
	citations := len(p.Citations)

	if findings < minFindings {
		issues = append(issues, fmt.Sprintf("Only %d findings (expected at least %d)", findings, minFindings))
		suggestions = append(suggestions, "Broaden the research query or use a deeper research model")
	}

	if citations < minCitations {
		issues = append(issues, fmt.Sprintf("Only %d citations (expected at least %d)", citations, minCitations))
		suggestions = append(suggestions, "Ask the research model for more sources per topic")
	}

	if p.Coverage.Overall == types.CoverageLimited {
		issues = append(issues, fmt.Sprintf("Limited coverage, missing: %v", p.Coverage.MissingCategories))
		suggestions = append(suggestions, "Add explicit questions for the missing categories")
	}

	low := 0
	for _, f := range p.Findings {
		if f.Confidence == types.ConfidenceLow {
			low++
		}
	}
	if low*2 > findings {
		issues = append(issues, fmt.Sprintf("%d of %d findings have low confidence", low, findings))
		suggestions = append(suggestions, "Require sources and concrete numbers for every claim")
	}

	var avg float64
	if findings > 0 {
		avg = float64(citations) / float64(findings)
	}

	covered := len(p.Coverage.CategoriesCovered)
	total := covered + len(p.Coverage.MissingCategories)
	var score float64
	if total > 0 {
		score = float64(covered) / float64(total) * 100
	}

	overall := types.QualityPoor
	switch {
	case len(issues) == 0 && score >= 80:
		overall = types.QualityGood
	case len(issues) <= 2 && score >= 50:
		overall = types.QualityModerate
	}

	return types.QualityAssessment{
		Overall:     overall,
		Issues:      issues,
		Suggestions: suggestions,
		Metrics: types.QualityMetrics{
			FindingsCount:          findings,
			CitationsCount:         citations,
			AvgCitationsPerFinding: avg,
			CoverageScore:          score,
		},
	}
}
