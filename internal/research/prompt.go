// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/pdiddy/idea-engine/pkg/types"
)

// systemPrompt is shared by all domains. The research model collects
// sourced facts and leaves analysis to the synthesis stage.
const systemPrompt = `Du er en forskningsassistent som samler faktabasert informasjon fra internett for å vurdere en produktidé.

Du skal IKKE analysere, vurdere eller anbefale. Samle og presenter fakta.

Prioriter:
- konkrete tall, størrelser og vekstrater
- navngitte selskaper, produkter og tjenester
- ferske kilder (siste 12-18 måneder)
- bransjeanalyser, forskningsrapporter og seriøse nyhetskilder

Bruk en overskrift (##) per tema og marker kildene med [n].`

// queries holds the domain-specific research questions. The headings are
// chosen so the parser maps each one to an expected category.
var queries = map[types.Domain]string{
	types.DomainMarket: `## Markedsstørrelse
- globalt og nordisk marked for denne typen løsning, med vekstrate (CAGR)

## Konkurrenter
- selskaper som løser samme problem, deres priser, markedsandeler og finansiering

## Trender
- teknologi- og reguleringstrender, nylige investeringer og oppkjøp i segmentet

## Målgruppe
- studier av målgruppens atferd og betalingsvilje

## Prising
- prisnivåer og prismodeller hos sammenlignbare tilbud`,

	types.DomainProduct: `## Teknologi
- rammeverk, plattformer og open source-prosjekter som kan brukes

## Data og API-er
- offentlige datakilder og API-er med relevante data, kostnad og kvalitet

## Lignende produkter
- case studies og arkitekturer fra lignende produkter, kjente utfordringer

## Integrasjoner
- verktøy målgruppen bruker og hvilke integrasjoner som finnes`,

	types.DomainBusiness: `## Forretningsmodell
- prismodeller og enhetsøkonomi (ARPU, CAC, LTV) hos navngitte selskaper

## Salg og distribusjon
- salgssykluser, distribusjonskanaler og CAC-benchmarks

## Risiko
- regulatoriske krav (GDPR, AI Act), kjente feilslag og fallgruver

## Skalering og vekst
- selskaper som har skalert i segmentet, investeringsrunder og exits`,
}

var userPromptTmpl = template.Must(template.New("research").Parse(`Her er idéen jeg trenger informasjon om:

---
{{.Document}}
---

Søk etter følgende:

{{.Query}}

Presenter funnene med kilder og konkrete tall.
`))

// Prompt is a rendered research request.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt renders the research prompt for domain around the idea document.
func BuildPrompt(domain types.Domain, document string) (Prompt, error) {
	query, ok := queries[domain]
	if !ok {
		return Prompt{}, fmt.Errorf("unknown domain %q", domain)
	}

	var buf bytes.Buffer
	data := struct{ Document, Query string }{Document: document, Query: query}
	if err := userPromptTmpl.Execute(&buf, data); err != nil {
		return Prompt{}, fmt.Errorf("rendering research prompt: %w", err)
	}
	return Prompt{System: systemPrompt, User: buf.String()}, nil
}
