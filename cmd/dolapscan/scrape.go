package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dolapscan/dolapscan/internal/config"
	"github.com/dolapscan/dolapscan/internal/pipeline"
	"github.com/dolapscan/dolapscan/internal/registry"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Crawl categories and snapshot listings into a cohort",
		Long: `Scrape crawls the configured category pages, discovers listing URLs, and
appends a snapshot of each listing to the cohort's append-only log.

A cohort is identified by date (YYYYMMDD) and created on first contact.
Re-running scrape for the same cohort resumes it: listings already in
the log are skipped, so an interrupted run never refetches what it
already has.

Examples:
  # Scrape today's cohort for two categories
  dolapscan scrape --categories kazak,elbise

  # Resume a specific cohort after a ban
  dolapscan scrape --cohort 20260301

  # Spread the crawl over three browser sessions
  dolapscan scrape --categories kazak,elbise,etek --sessions 3

  # Show the crawl plan without touching the network
  dolapscan scrape --categories kazak --dry-run`,
		Args: cobra.NoArgs,
		RunE: runScrapeCmd,
	}

	cmd.Flags().String("cohort", "",
		"Cohort id to create or resume (default: today as YYYYMMDD)")
	cmd.Flags().StringSlice("categories", nil,
		"Category slugs to crawl (e.g. kazak,elbise)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl per category")
	cmd.Flags().IntP("sessions", "s", config.DefaultSessions,
		"Number of independent browser sessions")
	cmd.Flags().Duration("delay-min", config.DefaultDelayMin,
		"Minimum pacing delay before each request")
	cmd.Flags().Duration("delay-max", config.DefaultDelayMax,
		"Maximum pacing delay before each request")
	cmd.Flags().Bool("headful", false,
		"Run the browser with a visible window (debugging)")
	cmd.Flags().Bool("dry-run", false,
		"Print the crawl plan and exit without fetching anything")
	addReportFlags(cmd)

	return cmd
}

// runScrapeCmd executes the scrape command.
func runScrapeCmd(cmd *cobra.Command, _ []string) error {
	cfg, cohortID, dryRun, err := buildScrapeConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)

	if dryRun {
		return printScrapePlan(cmd, cfg, cohortID)
	}

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
	summary, runErr := p.ScrapeRun(ctx, cohortID)
	if summary != nil {
		if _, err := writer.Write(summary); err != nil {
			logger.Error("report output failed", "error", err)
		}
	}
	return runErr
}

// buildScrapeConfig layers the scrape flags over the base configuration.
func buildScrapeConfig(cmd *cobra.Command) (*config.Config, string, bool, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, "", false, err
	}

	categories, err := cmd.Flags().GetStringSlice("categories")
	if err != nil {
		return nil, "", false, err
	}
	if len(categories) > 0 {
		cfg.Categories = categories
	}

	if cmd.Flags().Changed("max-pages") {
		if cfg.MaxPages, err = cmd.Flags().GetInt("max-pages"); err != nil {
			return nil, "", false, err
		}
	}
	if cmd.Flags().Changed("sessions") {
		if cfg.Sessions, err = cmd.Flags().GetInt("sessions"); err != nil {
			return nil, "", false, err
		}
	}
	if cmd.Flags().Changed("delay-min") {
		if cfg.DelayMin, err = cmd.Flags().GetDuration("delay-min"); err != nil {
			return nil, "", false, err
		}
	}
	if cmd.Flags().Changed("delay-max") {
		if cfg.DelayMax, err = cmd.Flags().GetDuration("delay-max"); err != nil {
			return nil, "", false, err
		}
	}

	headful, err := cmd.Flags().GetBool("headful")
	if err != nil {
		return nil, "", false, err
	}
	cfg.Headless = !headful

	cohortID, err := cmd.Flags().GetString("cohort")
	if err != nil {
		return nil, "", false, err
	}
	if cohortID == "" {
		cohortID = time.Now().UTC().Format("20060102")
	}

	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return nil, "", false, err
	}

	return cfg, cohortID, dryRun, nil
}

// printScrapePlan shows what a scrape run would do, without any network
// traffic. Useful for checking category slugs and pacing before a long run.
func printScrapePlan(cmd *cobra.Command, cfg *config.Config, cohortID string) error {
	if len(cfg.Categories) == 0 {
		return pipeline.ErrNoCategories
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cohort:      %s\n", cohortID)
	fmt.Fprintf(out, "Data dir:    %s\n", cfg.DataDir)
	fmt.Fprintf(out, "Sessions:    %d\n", cfg.Sessions)
	fmt.Fprintf(out, "Pacing:      %s to %s per request\n", cfg.DelayMin, cfg.DelayMax)
	fmt.Fprintf(out, "Categories:  %s\n", strings.Join(cfg.Categories, ", "))
	base := strings.TrimRight(cfg.BaseURL, "/")
	for _, category := range cfg.Categories {
		fmt.Fprintf(out, "  %s/%s?sayfa=1 .. ?sayfa=%d\n", base, category, cfg.MaxPages)
	}
	fmt.Fprintf(out, "Label due:   %s after scrape\n", cfg.MaturationWindow)
	return nil
}
