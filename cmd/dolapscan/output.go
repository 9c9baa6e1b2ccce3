package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dolapscan/dolapscan/internal/report"
)

// addReportFlags registers the output format flags shared by the commands
// that end with a report.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// resolveWriter builds the report writer selected by the format flags.
// The returned cleanup closes the output file when one was requested.
func resolveWriter(cmd *cobra.Command) (report.Writer, func(), error) {
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return nil, nil, err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, nil, err
	}
	if jsonOut && markdownOut {
		return nil, nil, fmt.Errorf("--json and --markdown are mutually exclusive")
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, nil, err
	}

	var output io.Writer = cmd.OutOrStdout()
	cleanup := func() {}
	if outputPath != "" {
		dir := filepath.Dir(outputPath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		output = f
		cleanup = func() { f.Close() }
	}

	switch {
	case jsonOut:
		return report.NewJSONWriter(output, report.WithPrettyPrint()), cleanup, nil
	case markdownOut:
		return report.NewMarkdownWriter(output), cleanup, nil
	default:
		return report.NewSimpleWriter(output), cleanup, nil
	}
}
