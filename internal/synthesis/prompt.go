// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/idea-engine/internal/research"
	"github.com/pdiddy/idea-engine/pkg/types"
)

// role describes the analyst persona and report for one domain.
type role struct {
	agent  string
	title  string
	report string
	focus  string
}

var roles = map[types.Domain]role{
	types.DomainMarket: {
		agent:  "market-strategist",
		title:  "Market Strategist",
		report: "markedsrapport",
		focus: `- markedsstørrelse (TAM/SAM/SOM) med begrunnede estimater
- konkurrenter, deres styrker og svakheter, og rom for en ny aktør
- betalingsvilje og prisstrategi
- timing og trender som støtter eller motarbeider idéen`,
	},
	types.DomainProduct: {
		agent:  "product-architect",
		title:  "Product Architect",
		report: "PRD (Product Requirements Document)",
		focus: `- kjernefunksjoner for en MVP og hva som kan vente
- teknisk arkitektur, datakilder og integrasjoner
- tekniske risikoer og ukjente faktorer
- estimert innsats; høy score betyr lett å bygge`,
	},
	types.DomainBusiness: {
		agent:  "business-critic",
		title:  "Business Critic",
		report: "risikovurdering",
		focus: `- forretningsmodell og enhetsøkonomi
- salg og distribusjon
- regulatoriske, markedsmessige og operasjonelle risikoer
- skalerbarhet; score reflekterer modellens styrke og bærekraft`,
	},
}

// Agent returns the agent label used in logs and errors for domain.
func Agent(domain types.Domain) string {
	if r, ok := roles[domain]; ok {
		return r.agent
	}
	return string(domain)
}

var categoryLabels = map[types.FindingCategory]string{
	types.CategoryMarketSize:      "Markedsstørrelse",
	types.CategoryCompetitors:     "Konkurrenter",
	types.CategoryTrends:          "Trender",
	types.CategoryTargetAudience:  "Målgruppe",
	types.CategoryPricing:         "Prising",
	types.CategoryTechnology:      "Teknologi",
	types.CategoryDataSources:     "Datakilder og API-er",
	types.CategorySimilarProducts: "Lignende produkter",
	types.CategoryIntegrations:    "Integrasjoner",
	types.CategoryBusinessModel:   "Forretningsmodell",
	types.CategoryGoToMarket:      "Salg og distribusjon",
	types.CategoryRisks:           "Risiko",
	types.CategoryScaling:         "Skalering",
	types.CategoryOther:           "Annet",
}

var systemTmpl = template.Must(template.New("system").Parse(`Du er {{.Title}}, en erfaren analytiker som evaluerer produktidéer.

Skriv en strukturert {{.Report}} på norsk. Vær objektiv, konkret og konservativ i estimatene.
{{- if .Research}}
En research-agent har allerede samlet fakta fra internett. Analyser og syntetiser denne dataen; ikke finn på nye kilder. Henvis til kildene med [n].
{{- end}}

Vurder:
{{.Focus}}

Avslutt rapporten med scoren på en egen linje, nøyaktig slik:
Score: X/10
der X er et tall mellom 0 og 10.`))

var userTmpl = template.Must(template.New("user").Parse(`# Idéutkast

{{.Document}}
{{- if .Findings}}

# Research-data
{{.Findings}}
{{- end}}

Produser en komplett {{.Report}} med Score: X/10.
`))

type promptData struct {
	Title    string
	Report   string
	Focus    string
	Research bool
	Document string
	Findings string
}

// Prompt is a rendered synthesis request.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt renders the synthesis prompt. A nil parsed builds the legacy
// prompt that works from the idea document alone.
func BuildPrompt(domain types.Domain, document string, parsed *types.ParsedResearch) (Prompt, error) {
	r, ok := roles[domain]
	if !ok {
		return Prompt{}, fmt.Errorf("unknown domain %q", domain)
	}

	data := promptData{
		Title:    r.title,
		Report:   r.report,
		Focus:    r.focus,
		Research: parsed != nil,
		Document: document,
	}
	if parsed != nil {
		data.Findings = formatFindings(domain, *parsed)
	}

	var sys, user bytes.Buffer
	if err := systemTmpl.Execute(&sys, data); err != nil {
		return Prompt{}, fmt.Errorf("rendering system prompt: %w", err)
	}
	if err := userTmpl.Execute(&user, data); err != nil {
		return Prompt{}, fmt.Errorf("rendering user prompt: %w", err)
	}
	return Prompt{System: sys.String(), User: user.String()}, nil
}

// formatFindings groups findings by category in the domain's expected
// order, then "other", and appends the numbered source list.
func formatFindings(domain types.Domain, parsed types.ParsedResearch) string {
	groups := make(map[types.FindingCategory][]types.ResearchFinding)
	for _, f := range parsed.Findings {
		groups[f.Category] = append(groups[f.Category], f)
	}

	order := append(research.ExpectedCategories(domain), types.CategoryOther)

	var b strings.Builder
	for _, cat := range order {
		findings := groups[cat]
		if len(findings) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n", categoryLabels[cat])
		for _, f := range findings {
			fmt.Fprintf(&b, "\n### %s (konfidens: %s)\n%s\n", f.Heading, f.Confidence, f.Content)
		}
	}

	if len(parsed.Citations) > 0 {
		b.WriteString("\n### Kilder\n")
		for i, c := range parsed.Citations {
			title := c.Title
			if title == "" {
				title = c.URL
			}
			fmt.Fprintf(&b, "[%d] %s - %s\n", i+1, c.URL, title)
		}
	}
	return b.String()
}
