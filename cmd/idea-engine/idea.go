// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/idea-engine/pkg/types"
)

var ideaCmd = &cobra.Command{
	Use:   "idea",
	Short: "Manage stored ideas (add, list, show, export)",
}

// --- add subcommand ---

var ideaAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Store a new idea document as a draft",
	Long: `Add reads an idea document from --file (or stdin when --file is "-" or
omitted) and stores it as a draft. The new idea ID is printed on stdout.`,
	RunE: runIdeaAdd,
}

func runIdeaAdd(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	file, _ := cmd.Flags().GetString("file")

	doc, err := readDocument(cmd.InOrStdin(), file)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	idea, err := a.store.CreateIdea(cmd.Context(), title, doc)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), idea.ID)
	return nil
}

func readDocument(stdin io.Reader, file string) (string, error) {
	var data []byte
	var err error
	if file == "" || file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("reading idea document: %w", err)
	}
	return string(data), nil
}

// --- list subcommand ---

var ideaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored ideas, newest first",
	RunE:  runIdeaList,
}

func runIdeaList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ideas, err := a.store.ListIdeas(cmd.Context())
	if err != nil {
		return err
	}
	return formatIdeaList(cmd.OutOrStdout(), ideas)
}

func formatIdeaList(w io.Writer, ideas []types.Idea) error {
	if len(ideas) == 0 {
		fmt.Fprintln(w, "No ideas stored.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-10s  %-5s  %-9s  %s\n", "ID", "Status", "Score", "Verdict", "Title")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, idea := range ideas {
		score := "-"
		if idea.ScoreTotal != nil {
			score = fmt.Sprintf("%.1f", *idea.ScoreTotal)
		}
		verdict := "-"
		if idea.Recommendation != "" {
			verdict = idea.Recommendation.Label()
		}
		fmt.Fprintf(w, "%-36s  %-10s  %-5s  %-9s  %s\n", idea.ID, idea.Status, score, verdict, truncate(idea.Title, 40))
	}
	fmt.Fprintf(w, "\n%d ideas\n", len(ideas))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// --- show subcommand ---

var ideaShowCmd = &cobra.Command{
	Use:   "show <idea-id>",
	Short: "Show an idea and its evaluation results",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdeaShow,
}

func runIdeaShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	idea, err := a.store.GetIdea(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return writeFormatted(cmd.OutOrStdout(), format, idea, func(w io.Writer) { formatIdea(w, idea) })
}

func formatIdea(w io.Writer, idea types.Idea) {
	fmt.Fprintf(w, "%s (%s)\n", idea.Title, idea.Status)
	fmt.Fprintf(w, "ID: %s  Updated: %s\n", idea.ID, idea.UpdatedAt.Local().Format("2006-01-02 15:04"))
	if idea.ScoreTotal == nil {
		fmt.Fprintln(w, "\nNot evaluated.")
		return
	}

	fmt.Fprintf(w, "\nScores: marked %s  byggbarhet %s  business %s  total %s\n",
		fmtScore(idea.ScoreMarket), fmtScore(idea.ScoreBuildability), fmtScore(idea.ScoreBusiness), fmtScore(idea.ScoreTotal))
	fmt.Fprintf(w, "Anbefaling: %s\n%s\n", idea.Recommendation.Label(), idea.RecommendationReason)

	for _, s := range []struct{ title, body string }{
		{"Oppsummering", idea.Summary},
		{"Markedsrapport", idea.MarketReport},
		{"PRD", idea.PRD},
		{"Risikovurdering", idea.RiskAssessment},
	} {
		fmt.Fprintf(w, "\n## %s\n\n%s\n", s.title, strings.TrimSpace(s.body))
	}
}

func fmtScore(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g/10", *v)
}

// writeFormatted encodes v as yaml or json, or calls text for the text format.
func writeFormatted(w io.Writer, format string, v any, text func(io.Writer)) error {
	switch format {
	case "text", "":
		text(w)
		return nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return fmt.Errorf("unsupported format %q: use text, yaml, or json", format)
}

// --- export subcommand ---

var ideaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all ideas with their latest job to YAML or JSON",
	RunE:  runIdeaExport,
}

func runIdeaExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	w := cmd.OutOrStdout()
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "yaml", "":
		err = a.store.ExportYAML(cmd.Context(), w)
	case "json":
		err = a.store.ExportJSON(cmd.Context(), w)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", out)
	}
	return nil
}

func init() {
	ideaAddCmd.Flags().String("title", "", "idea title (required)")
	ideaAddCmd.Flags().String("file", "", "idea document file (default: stdin)")
	_ = ideaAddCmd.MarkFlagRequired("title")

	ideaShowCmd.Flags().String("format", "text", "output format: text, yaml, or json")

	ideaExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	ideaExportCmd.Flags().String("out", "", "write to file instead of stdout")

	ideaCmd.AddCommand(ideaAddCmd)
	ideaCmd.AddCommand(ideaListCmd)
	ideaCmd.AddCommand(ideaShowCmd)
	ideaCmd.AddCommand(ideaExportCmd)

	rootCmd.AddCommand(ideaCmd)
}
