// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/idea-engine/pkg/types"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <idea-id>",
	Short: "Run a full evaluation of a stored idea",
	Long: `Evaluate runs the market, product, and business agents concurrently,
then the final recommendation stage, and stores the reports, scores, and
recommendation on the idea. Progress is written to the job record; follow it
from another terminal with "idea-engine status <idea-id> --watch".

An idea can have only one running evaluation at a time.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if mode, _ := cmd.Flags().GetString("mode"); mode != "" {
		a.cfg.Evaluation.Mode = types.EvaluationMode(mode)
	}
	if fm, _ := cmd.Flags().GetString("failure-mode"); fm != "" {
		a.cfg.Evaluation.FailureMode = types.FailureMode(fm)
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	svc, err := a.service(ctx)
	if err != nil {
		return err
	}

	res, err := svc.Evaluate(ctx, args[0])
	if err != nil {
		return err
	}

	formatEvaluation(cmd.OutOrStdout(), res)
	if output != "" {
		if err := writeYAMLFile(output, res); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", output)
	}
	return nil
}

func formatEvaluation(w io.Writer, res types.EvaluationResult) {
	fmt.Fprintf(w, "Marked:      %g/10\n", res.ScoreMarket)
	fmt.Fprintf(w, "Byggbarhet:  %g/10\n", res.ScoreBuildability)
	fmt.Fprintf(w, "Business:    %g/10\n", res.ScoreBusiness)
	fmt.Fprintf(w, "Total:       %g/10\n", res.ScoreTotal)
	fmt.Fprintf(w, "Anbefaling:  %s\n", res.Recommendation.Label())
	fmt.Fprintf(w, "\nMode %s, cost $%.4f (research $%.4f, synthesis $%.4f), %s\n",
		res.Mode, res.Metrics.TotalCost, res.Metrics.ResearchCost, res.Metrics.SynthesisCost,
		res.Metrics.Duration.Round(time.Second))
}

func writeYAMLFile(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func init() {
	evaluateCmd.Flags().String("mode", "", "override evaluation.mode: two-step or legacy")
	evaluateCmd.Flags().String("failure-mode", "", "override evaluation.failure_mode: fail or degrade")
	evaluateCmd.Flags().String("output", "", "also write the full result to this YAML file")

	rootCmd.AddCommand(evaluateCmd)
}
