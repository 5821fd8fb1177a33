// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/idea-engine/internal/research"
	"github.com/pdiddy/idea-engine/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Run the research stage for one domain and report its quality",
	Long: `Research runs only the research stage for one domain and prints the
parsed findings and quality assessment. Nothing is stored. Use it to tune
research prompts without paying for synthesis.

The document comes from --idea (a stored idea) or --file (stdin when "-").`,
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	domain := types.Domain(flagString(cmd, "domain"))
	ideaID := flagString(cmd, "idea")
	file := flagString(cmd, "file")
	raw, _ := cmd.Flags().GetBool("raw")

	if !domain.Valid() {
		return fmt.Errorf("unknown domain %q: use market, product, or business", domain)
	}
	if (ideaID == "") == (file == "") {
		return fmt.Errorf("provide exactly one of --idea or --file")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var doc string
	if ideaID != "" {
		idea, err := a.store.GetIdea(cmd.Context(), ideaID)
		if err != nil {
			return err
		}
		doc = idea.Document
	} else if doc, err = readDocument(cmd.InOrStdin(), file); err != nil {
		return err
	}

	runner, err := a.researchRunner()
	if err != nil {
		return err
	}
	res, err := runner.Run(cmd.Context(), doc, domain)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if raw {
		fmt.Fprintln(w, res.RawContent)
		fmt.Fprintln(w)
	}
	formatResearch(w, domain, res, research.AssessQuality(res.Parsed))
	return nil
}

func formatResearch(w io.Writer, domain types.Domain, res types.ResearchResult, q types.QualityAssessment) {
	fmt.Fprintf(w, "%s research: %d findings, %d citations, coverage %s\n",
		domain, q.Metrics.FindingsCount, q.Metrics.CitationsCount, res.Parsed.Coverage.Overall)
	fmt.Fprintf(w, "Model %s, %d tokens, $%.4f\n\n", res.Model, res.TokensUsed, res.Cost)

	fmt.Fprintf(w, "%-20s  %-6s  %-5s  %s\n", "Category", "Conf", "Cites", "Heading")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, f := range res.Parsed.Findings {
		fmt.Fprintf(w, "%-20s  %-6s  %-5d  %s\n", f.Category, f.Confidence, len(f.Citations), truncate(f.Heading, 40))
	}
	if missing := res.Parsed.Coverage.MissingCategories; len(missing) > 0 {
		fmt.Fprintf(w, "\nMissing: %v\n", missing)
	}

	fmt.Fprintf(w, "\nQuality: %s (coverage score %.0f, %.1f citations per finding)\n",
		q.Overall, q.Metrics.CoverageScore, q.Metrics.AvgCitationsPerFinding)
	for i, issue := range q.Issues {
		fmt.Fprintf(w, "  - %s\n", issue)
		if i < len(q.Suggestions) {
			fmt.Fprintf(w, "    %s\n", q.Suggestions[i])
		}
	}
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func init() {
	researchCmd.Flags().String("domain", "market", "domain to research: market, product, or business")
	researchCmd.Flags().String("idea", "", "stored idea ID to research")
	researchCmd.Flags().String("file", "", "idea document file (- for stdin)")
	researchCmd.Flags().Bool("raw", false, "print the raw research report before the summary")

	rootCmd.AddCommand(researchCmd)
}
