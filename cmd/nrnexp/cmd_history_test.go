package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestHistoryCmd_Empty(t *testing.T) {
	rootCmd := newTestRootCmd()
	rootCmd.AddCommand(newHistoryCmd())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"history", "--root", t.TempDir()})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out.String(), "No runs recorded") {
		t.Errorf("expected empty message, got: %q", out.String())
	}
}

func TestHistoryCmd_AfterValidateAndBuild(t *testing.T) {
	dir := t.TempDir()
	doc := writeExperiment(t, dir, "experiment.yaml", validExperiment)

	for _, args := range [][]string{
		{"validate", doc, "--root", dir},
		{"build", doc, "--root", dir, "--dry-run"},
	} {
		rootCmd := newTestRootCmd()
		rootCmd.AddCommand(newValidateCmd(), newBuildCmd())
		rootCmd.SetOut(&bytes.Buffer{})
		rootCmd.SetErr(&bytes.Buffer{})
		rootCmd.SetArgs(args)
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("%v failed: %v", args, err)
		}
	}

	rootCmd := newTestRootCmd()
	rootCmd.AddCommand(newHistoryCmd())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"history", "--root", dir, "--json"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("history failed: %v", err)
	}

	var parsed struct {
		Count int `json:"count"`
		Runs  []struct {
			Operation       string `json:"operation"`
			Outcome         string `json:"outcome"`
			PlanFingerprint string `json:"plan_fingerprint"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(out.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if parsed.Count != 2 {
		t.Fatalf("count = %d, want 2", parsed.Count)
	}
	// Newest first: the build run precedes the validate run.
	if parsed.Runs[0].Operation != "build" {
		t.Errorf("first run = %q, want build", parsed.Runs[0].Operation)
	}
	if parsed.Runs[0].PlanFingerprint == "" {
		t.Error("build run missing plan fingerprint")
	}
	for _, r := range parsed.Runs {
		if r.Outcome != "valid" {
			t.Errorf("run outcome = %q, want valid", r.Outcome)
		}
	}
}

func TestHistoryCmd_LimitFlag(t *testing.T) {
	dir := t.TempDir()
	doc := writeExperiment(t, dir, "experiment.yaml", validExperiment)

	for i := 0; i < 3; i++ {
		rootCmd := newTestRootCmd()
		rootCmd.AddCommand(newValidateCmd())
		rootCmd.SetOut(&bytes.Buffer{})
		rootCmd.SetErr(&bytes.Buffer{})
		rootCmd.SetArgs([]string{"validate", doc, "--root", dir})
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("validate failed: %v", err)
		}
	}

	rootCmd := newTestRootCmd()
	rootCmd.AddCommand(newHistoryCmd())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"history", "--root", dir, "--json", "--limit", "2"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("history failed: %v", err)
	}

	var parsed struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(out.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if parsed.Count != 2 {
		t.Errorf("count = %d, want 2", parsed.Count)
	}
}
