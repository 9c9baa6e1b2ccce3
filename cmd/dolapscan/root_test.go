package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestNewRootCmd tests the command tree wiring.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	if cmd.Use != "dolapscan" {
		t.Errorf("unexpected use: %q", cmd.Use)
	}

	want := map[string]bool{"scrape": false, "label": false, "status": false, "version": false}
	for _, sub := range cmd.Commands() {
		name := strings.Fields(sub.Use)[0]
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}

	for _, flag := range []string{"verbose", "config", "data-dir"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag %q", flag)
		}
	}
}

// TestRootCmdHelp tests that help renders without error.
func TestRootCmdHelp(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("help failed: %v", err)
	}
	if !strings.Contains(out.String(), "dolapscan") {
		t.Errorf("unexpected help output:\n%s", out.String())
	}
}

// TestRootCmdUnknownCommand tests the error path for a bad subcommand.
func TestRootCmdUnknownCommand(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"does-not-exist"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for unknown subcommand")
	}
}
