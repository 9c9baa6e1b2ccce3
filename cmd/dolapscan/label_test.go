package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestLabelCmdForceRequiresCohort tests the flag guard.
func TestLabelCmdForceRequiresCohort(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"label", "--force", "--data-dir", t.TempDir()})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "--force requires --cohort") {
		t.Fatalf("expected the force guard, got %v", err)
	}
}

// TestLabelCmdNothingDue tests that an empty registry is not an error.
func TestLabelCmdNothingDue(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"label", "--data-dir", t.TempDir()})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected a clean no-op, got %v", err)
	}
}

// TestLabelCmdUnknownCohort tests the not-found path.
func TestLabelCmdUnknownCohort(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"label", "--cohort", "20990101", "--data-dir", t.TempDir()})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for an unknown cohort")
	}
}
