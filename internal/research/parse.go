// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/idea-engine/pkg/types"
)

var (
	// headingRe matches level-2 and level-3 markdown headings.
	headingRe = regexp.MustCompile(`(?m)^(#{2,3})\s+(.+)$`)

	// numericCiteRe matches numeric citation markers like [1] or [12].
	numericCiteRe = regexp.MustCompile(`\[(\d+)\]`)

	urlRe = regexp.MustCompile(`https?://[^\s\)]+`)
)

type categoryRule struct {
	category types.FindingCategory
	keywords []string
}

// categoryRules is checked in order; the first rule with a keyword contained
// in the lowercased heading wins.
var categoryRules = map[types.Domain][]categoryRule{
	types.DomainMarket: {
		{types.CategoryMarketSize, []string{"marked", "market"}},
		{types.CategoryCompetitors, []string{"konkurrent", "competitor"}},
		{types.CategoryTrends, []string{"trend"}},
		{types.CategoryTargetAudience, []string{"målgruppe", "target"}},
		{types.CategoryPricing, []string{"pris", "pricing"}},
	},
	types.DomainProduct: {
		{types.CategoryTechnology, []string{"teknologi", "technology", "tech"}},
		{types.CategoryDataSources, []string{"data", "api"}},
		{types.CategorySimilarProducts, []string{"lignende", "similar", "eksempel"}},
		{types.CategoryIntegrations, []string{"integra"}},
	},
	types.DomainBusiness: {
		{types.CategoryBusinessModel, []string{"forretning", "business", "modell"}},
		{types.CategoryGoToMarket, []string{"salg", "go-to-market", "gtm", "distribusjon"}},
		{types.CategoryRisks, []string{"risiko", "risk"}},
		{types.CategoryScaling, []string{"skaler", "scaling", "vekst"}},
	},
}

// ExpectedCategories returns the categories a complete report for domain covers.
func ExpectedCategories(domain types.Domain) []types.FindingCategory {
	rules := categoryRules[domain]
	out := make([]types.FindingCategory, len(rules))
	for i, r := range rules {
		out[i] = r.category
	}
	return out
}

// Categorize maps a section heading to a category for domain.
func Categorize(domain types.Domain, heading string) types.FindingCategory {
	lower := strings.ToLower(heading)
	for _, r := range categoryRules[domain] {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.category
			}
		}
	}
	return types.CategoryOther
}

type section struct {
	heading string
	body    string
}

// splitSections returns the headed sections of content. Text before the
// first heading and sections with empty bodies are dropped.
func splitSections(content string) []section {
	locs := headingRe.FindAllStringSubmatchIndex(content, -1)
	var sections []section
	for i, loc := range locs {
		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(content[loc[1]:end])
		if body == "" {
			continue
		}
		sections = append(sections, section{
			heading: strings.TrimSpace(content[loc[4]:loc[5]]),
			body:    body,
		})
	}
	return sections
}

// sectionCitations resolves [n] markers (1-based) and literal URLs that
// equal a known citation. Every marker counts, so a source cited twice
// appears twice. A literal URL is added only if not already present.
func sectionCitations(body string, citations []types.Citation) []types.Citation {
	var out []types.Citation
	seen := make(map[string]bool)

	for _, m := range numericCiteRe.FindAllStringSubmatch(body, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(citations) {
			continue
		}
		c := citations[n-1]
		seen[c.URL] = true
		out = append(out, c)
	}

	for _, u := range urlRe.FindAllString(body, -1) {
		for _, c := range citations {
			if c.URL == u && !seen[c.URL] {
				seen[c.URL] = true
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func confidence(body string, cites []types.Citation) types.Confidence {
	switch {
	case len(cites) >= 2 && strings.ContainsAny(body, "0123456789"):
		return types.ConfidenceHigh
	case len(cites) >= 1:
		return types.ConfidenceMedium
	}
	return types.ConfidenceLow
}

// Parse turns a research report into findings with per-section citations
// and a coverage summary against the domain's expected categories.
func Parse(content string, citations []types.Citation, domain types.Domain) types.ParsedResearch {
	parsed := types.ParsedResearch{Citations: citations}
	if parsed.Citations == nil {
		parsed.Citations = []types.Citation{}
	}

	for _, s := range splitSections(content) {
		cites := sectionCitations(s.body, citations)
		parsed.Findings = append(parsed.Findings, types.ResearchFinding{
			Category:   Categorize(domain, s.heading),
			Heading:    s.heading,
			Content:    s.body,
			Citations:  cites,
			Confidence: confidence(s.body, cites),
		})
	}
	if parsed.Findings == nil {
		parsed.Findings = []types.ResearchFinding{}
	}

	parsed.Coverage = coverage(parsed.Findings, ExpectedCategories(domain))
	return parsed
}

// coverage counts every distinct observed category, "other" included,
// against the size of the expected set.
func coverage(findings []types.ResearchFinding, expected []types.FindingCategory) types.Coverage {
	covered := []types.FindingCategory{}
	seen := make(map[types.FindingCategory]bool)
	for _, f := range findings {
		if !seen[f.Category] {
			seen[f.Category] = true
			covered = append(covered, f.Category)
		}
	}

	missing := []types.FindingCategory{}
	for _, c := range expected {
		if !seen[c] {
			missing = append(missing, c)
		}
	}

	var ratio float64
	if len(expected) > 0 {
		ratio = float64(len(covered)) / float64(len(expected))
	}

	level := types.CoverageLimited
	switch {
	case ratio >= 0.8:
		level = types.CoverageComprehensive
	case ratio >= 0.5:
		level = types.CoveragePartial
	}

	return types.Coverage{CategoriesCovered: covered, MissingCategories: missing, Overall: level}
}
