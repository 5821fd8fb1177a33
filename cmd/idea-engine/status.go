// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/idea-engine/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status <idea-id>",
	Short: "Show the latest evaluation job of an idea",
	Long: `Status prints the phase, per-agent stage statuses, current step, and
estimated time remaining of the idea's latest evaluation job. With --watch
it polls until the job completes or fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	watch, _ := cmd.Flags().GetDuration("watch")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	w := cmd.OutOrStdout()
	for {
		job, err := a.store.LatestJob(ctx, args[0])
		if err != nil {
			return err
		}
		if err := writeFormatted(w, format, job, func(w io.Writer) { formatJob(w, job) }); err != nil {
			return err
		}
		if watch <= 0 || job.Status.Terminal() {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(watch):
		}
		fmt.Fprintln(w)
	}
}

func formatJob(w io.Writer, j types.Job) {
	fmt.Fprintf(w, "Job %s: %s", j.ID, j.Status)
	if j.Phase != "" {
		fmt.Fprintf(w, " (%s)", j.Phase)
	}
	fmt.Fprintln(w)
	if j.Step != "" {
		fmt.Fprintf(w, "Step: %s\n", j.Step)
	}
	if j.Status.Active() {
		fmt.Fprintf(w, "ETA:  %s\n", time.Duration(j.ETASeconds)*time.Second)
	}

	fmt.Fprintf(w, "\n%-10s  %-10s  %s\n", "Agent", "Research", "Synthesis")
	for _, d := range types.Domains {
		p := j.Agents[d]
		fmt.Fprintf(w, "%-10s  %-10s  %s\n", d, p.Research, p.Synthesis)
	}
	fmt.Fprintf(w, "%-10s  %-10s  %s\n", "final", "", j.FinalStatus)

	if j.Error != "" {
		fmt.Fprintf(w, "\nError: %s\n", j.Error)
	}
	if j.StartedAt != nil && j.CompletedAt != nil {
		fmt.Fprintf(w, "\nTook %s\n", j.CompletedAt.Sub(*j.StartedAt).Round(time.Second))
	}
}

func init() {
	statusCmd.Flags().String("format", "text", "output format: text, yaml, or json")
	statusCmd.Flags().Duration("watch", 0, "poll at this interval until the job finishes (e.g. 2s)")

	rootCmd.AddCommand(statusCmd)
}
