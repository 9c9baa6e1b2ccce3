// Package main provides the entry point for the dolapscan CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dolapscan/dolapscan/internal/config"
	applog "github.com/dolapscan/dolapscan/internal/log"
)

// NewRootCmd creates the root command for dolapscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dolapscan",
		Short: "Temporal dataset builder for the Dolap marketplace",
		Long: `Dolapscan snapshots second-hand fashion listings into dated cohorts and,
after a maturation window, re-visits each listing to record whether it
sold. The resulting snapshot and label logs form a supervised dataset
for sell-through prediction.

Pages are fetched through a real headless browser behind an anti-ban
controller: randomized pacing, identity rotation, bounded retries, and
an automatic pause when the site starts blocking.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .dolapscan in current or home directory)")
	cmd.PersistentFlags().String("data-dir", "",
		"Data directory for the registry and cohort logs (default: XDG data dir)")

	// Add subcommands
	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewLabelCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildConfig creates a Config from defaults, the optional .dolapscan file,
// and the persistent flags. Subcommands layer their own flags on top.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly named config file must exist; the default search is
	// allowed to come up empty.
	explicit := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if explicit {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	dataDir, err := cmd.Flags().GetString("data-dir")
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	cfg.Verbose, err = cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// setupLogger creates the masking structured logger and installs it as the
// process default.
func setupLogger(verbose bool) *slog.Logger {
	logger := applog.NewScrapeLogger(os.Stderr, verbose)
	slog.SetDefault(logger)
	return logger
}
