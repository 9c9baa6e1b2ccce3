package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".dolapscan"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the on-disk YAML configuration.
//
// Example:
//
//	scraping:
//	  base_url: https://dolap.com
//	  categories: [kazak, elbise, mont]
//	  delay:
//	    min_seconds: 1.5
//	    max_seconds: 3.5
//	  max_retries: 3
//	  timeout_seconds: 30
//	  max_pages_per_category: 50
//	  ban_threshold: 5
//	  cooldown_minutes: 30
//	labeling:
//	  maturation_days: 7
//	data_dir: /var/lib/dolapscan
type File struct {
	Scraping ScrapingSection `yaml:"scraping"`
	Labeling LabelingSection `yaml:"labeling"`
	DataDir  string          `yaml:"data_dir"`
}

// ScrapingSection configures the fetch/crawl side.
type ScrapingSection struct {
	BaseURL    string   `yaml:"base_url"`
	Categories []string `yaml:"categories"`
	Delay      struct {
		MinSeconds float64 `yaml:"min_seconds"`
		MaxSeconds float64 `yaml:"max_seconds"`
	} `yaml:"delay"`
	MaxRetries          int      `yaml:"max_retries"`
	TimeoutSeconds      int      `yaml:"timeout_seconds"`
	MaxPagesPerCategory int      `yaml:"max_pages_per_category"`
	BanThreshold        int      `yaml:"ban_threshold"`
	CooldownMinutes     int      `yaml:"cooldown_minutes"`
	UserAgents          []string `yaml:"user_agents"`
}

// LabelingSection configures the labeling side.
type LabelingSection struct {
	MaturationDays int `yaml:"maturation_days"`
}

// LoadConfigFile loads configuration from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers should
// handle this based on whether the path was explicitly specified.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindConfigFile searches for the configuration file in the following order:
//  1. If configPath is specified, use it directly
//  2. Look for .dolapscan in the current directory
//  3. Look for .dolapscan in the user's home directory
//
// Returns the path if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Apply overlays the file's settings onto cfg. Only fields the file actually
// sets are applied, so flag defaults survive an empty file.
func (f *File) Apply(cfg *Config) {
	if f.Scraping.BaseURL != "" {
		cfg.BaseURL = f.Scraping.BaseURL
	}
	if len(f.Scraping.Categories) > 0 {
		cfg.Categories = append([]string(nil), f.Scraping.Categories...)
	}
	if f.Scraping.Delay.MinSeconds > 0 {
		cfg.DelayMin = time.Duration(f.Scraping.Delay.MinSeconds * float64(time.Second))
	}
	if f.Scraping.Delay.MaxSeconds > 0 {
		cfg.DelayMax = time.Duration(f.Scraping.Delay.MaxSeconds * float64(time.Second))
	}
	if f.Scraping.MaxRetries > 0 {
		cfg.MaxRetries = f.Scraping.MaxRetries
	}
	if f.Scraping.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(f.Scraping.TimeoutSeconds) * time.Second
	}
	if f.Scraping.MaxPagesPerCategory > 0 {
		cfg.MaxPages = f.Scraping.MaxPagesPerCategory
	}
	if f.Scraping.BanThreshold > 0 {
		cfg.BanThreshold = f.Scraping.BanThreshold
	}
	if f.Scraping.CooldownMinutes > 0 {
		cfg.Cooldown = time.Duration(f.Scraping.CooldownMinutes) * time.Minute
	}
	if len(f.Scraping.UserAgents) > 0 {
		cfg.UserAgents = append([]string(nil), f.Scraping.UserAgents...)
	}
	if f.Labeling.MaturationDays > 0 {
		cfg.MaturationWindow = time.Duration(f.Labeling.MaturationDays) * 24 * time.Hour
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
}
