package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestScrapeCmdDryRun tests the crawl plan output.
func TestScrapeCmdDryRun(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{
		"scrape", "--dry-run",
		"--cohort", "20260301",
		"--categories", "kazak,elbise",
		"--max-pages", "5",
		"--data-dir", t.TempDir(),
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("dry run failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Cohort:      20260301",
		"kazak, elbise",
		"https://dolap.com/kazak?sayfa=1 .. ?sayfa=5",
		"https://dolap.com/elbise?sayfa=1 .. ?sayfa=5",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("plan missing %q:\n%s", want, got)
		}
	}
}

// TestScrapeCmdDryRunNoCategories tests the missing-category error.
func TestScrapeCmdDryRunNoCategories(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"scrape", "--dry-run", "--data-dir", t.TempDir()})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error without categories")
	}
}

// TestScrapeCmdInvalidPacing tests config validation through the flags.
func TestScrapeCmdInvalidPacing(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{
		"scrape", "--dry-run",
		"--categories", "kazak",
		"--delay-min", "5s",
		"--delay-max", "1s",
		"--data-dir", t.TempDir(),
	})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "configuration error") {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}

// TestScrapeCmdExplicitConfigMissing tests that a named config file must
// exist.
func TestScrapeCmdExplicitConfigMissing(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{
		"scrape", "--dry-run",
		"--categories", "kazak",
		"--config", "/nonexistent/.dolapscan",
		"--data-dir", t.TempDir(),
	})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "configuration file not found") {
		t.Fatalf("expected a missing-config error, got %v", err)
	}
}
