package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dolapscan/dolapscan/internal/model"
	"github.com/dolapscan/dolapscan/internal/pipeline"
	"github.com/dolapscan/dolapscan/internal/registry"
)

// NewLabelCmd creates the label command.
func NewLabelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Re-visit matured cohorts and record listing outcomes",
		Long: `Label re-visits the listings of cohorts whose maturation window has
elapsed and appends an outcome record for each: sold, still active,
removed without a sale signal, or error.

Without --cohort, every due cohort is labeled, oldest first. Labeling
is resumable: listings labeled before an interruption are skipped on
the next run.

Examples:
  # Label everything that is due
  dolapscan label

  # Label (or resume) one specific cohort
  dolapscan label --cohort 20260301

  # Label a cohort before its window elapses (skews the dataset)
  dolapscan label --cohort 20260301 --force`,
		Args: cobra.NoArgs,
		RunE: runLabelCmd,
	}

	cmd.Flags().String("cohort", "",
		"Cohort id to label (default: all cohorts whose window has elapsed)")
	cmd.Flags().BoolP("force", "f", false,
		"Label before the maturation window has elapsed")
	addReportFlags(cmd)

	return cmd
}

// runLabelCmd executes the label command.
func runLabelCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	cohortID, err := cmd.Flags().GetString("cohort")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	if force && cohortID == "" {
		return fmt.Errorf("--force requires --cohort")
	}

	logger := setupLogger(cfg.Verbose)

	writer, cleanup, err := resolveWriter(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg, err := registry.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open registry: %w", err)
	}
	defer reg.Close()

	p := pipeline.New(cfg, reg, pipeline.WithLogger(logger))

	var summaries []*model.RunSummary
	var runErr error
	if cohortID != "" {
		var summary *model.RunSummary
		summary, runErr = p.LabelRun(ctx, cohortID, force)
		if summary != nil {
			summaries = append(summaries, summary)
		}
	} else {
		summaries, runErr = p.LabelDueRuns(ctx)
	}

	for _, summary := range summaries {
		if _, err := writer.Write(summary); err != nil {
			logger.Error("report output failed", "error", err)
		}
	}
	return runErr
}
