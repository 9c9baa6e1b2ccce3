package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dolapscan/dolapscan/internal/registry"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show registered cohorts and their lifecycle states",
		Long: `Status lists every cohort in the registry with its state, creation date,
label due date, and log sizes. The registry is the source of truth for
which cohorts still need scraping or labeling.

Examples:
  # Human-readable table
  dolapscan status

  # Machine-readable listing
  dolapscan status --json`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}

	addReportFlags(cmd)

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	setupLogger(cfg.Verbose)

	writer, cleanup, err := resolveWriter(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	reg, err := registry.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open registry: %w", err)
	}
	defer reg.Close()

	cohorts, err := reg.List(cmd.Context())
	if err != nil {
		return err
	}

	_, err = writer.WriteCohorts(cohorts)
	return err
}
