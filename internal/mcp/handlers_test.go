package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const validDoc = `
metadata: {name: scenario}
model:
  morphology:
    type: multi_section
    sections:
      soma: {L: 20, diam: 20, nseg: 1}
      dend: {L: 200, diam: 2, nseg: 5}
    connections:
      - {parent: soma, child: dend}
  biophysics:
    soma:
      mechanisms:
        hh: {}
stimuli:
  - {name: pulse, section: soma, delay_ms: 5, duration_ms: 50, amplitude_nA: 0.2}
recordings:
  - {name: soma_v, variable: v, section: soma}
simulation: {tstop_ms: 100, dt_ms: 0.025}
`

const invalidDoc = `
metadata: {name: broken}
model:
  morphology:
    type: multi_section
    sections:
      soma: {L: 20, diam: 20}
stimuli:
  - {name: pulse, section: missing, delay_ms: 5, duration_ms: 50, amplitude_nA: 0.2}
simulation: {tstop_ms: 100}
`

func setupServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(&Config{Name: "nrnexp", Version: "test", Root: t.TempDir()})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func writeDoc(t *testing.T, s *Server, name, content string) string {
	t.Helper()
	path := filepath.Join(s.root, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	return name
}

func TestHandleValidate_ValidDocument(t *testing.T) {
	s := setupServer(t)
	path := writeDoc(t, s, "experiment.yaml", validDoc)

	_, out, err := s.handleValidate(context.Background(), &sdk.CallToolRequest{}, ValidateInput{Path: path})
	if err != nil {
		t.Fatalf("handleValidate() error = %v", err)
	}
	if !out.Valid {
		t.Errorf("handleValidate() valid = false, diagnostics: %v", out.Diagnostics)
	}
	if out.Fatal != 0 {
		t.Errorf("handleValidate() fatal = %d, want 0", out.Fatal)
	}
	if out.Diagnostics == nil {
		t.Error("handleValidate() diagnostics must be an empty slice, not nil")
	}
}

func TestHandleValidate_InvalidDocument(t *testing.T) {
	s := setupServer(t)
	path := writeDoc(t, s, "broken.yaml", invalidDoc)

	_, out, err := s.handleValidate(context.Background(), &sdk.CallToolRequest{}, ValidateInput{Path: path})
	if err != nil {
		t.Fatalf("handleValidate() error = %v", err)
	}
	if out.Valid {
		t.Error("handleValidate() valid = true for document with dangling section reference")
	}
	if out.Fatal == 0 {
		t.Error("handleValidate() fatal = 0, want > 0")
	}
	if !strings.Contains(out.Message, "invalid") {
		t.Errorf("handleValidate() message = %q", out.Message)
	}
}

func TestHandleValidate_MissingPath(t *testing.T) {
	s := setupServer(t)

	if _, _, err := s.handleValidate(context.Background(), &sdk.CallToolRequest{}, ValidateInput{}); err == nil {
		t.Error("handleValidate() expected error for empty path")
	}
}

func TestHandleBuild_ProducesPlan(t *testing.T) {
	s := setupServer(t)
	path := writeDoc(t, s, "experiment.yaml", validDoc)

	_, out, err := s.handleBuild(context.Background(), &sdk.CallToolRequest{}, BuildInput{Path: path})
	if err != nil {
		t.Fatalf("handleBuild() error = %v", err)
	}
	if !out.Valid {
		t.Fatalf("handleBuild() valid = false, diagnostics: %v", out.Diagnostics)
	}
	if out.Fingerprint == "" {
		t.Error("handleBuild() fingerprint is empty")
	}
	if out.StepCount == 0 {
		t.Error("handleBuild() step count is zero")
	}
	if !strings.Contains(out.Plan, "create-section") {
		t.Errorf("handleBuild() plan JSON missing steps:\n%s", out.Plan)
	}
}

func TestHandleBuild_InvalidDocumentNoPlan(t *testing.T) {
	s := setupServer(t)
	path := writeDoc(t, s, "broken.yaml", invalidDoc)

	_, out, err := s.handleBuild(context.Background(), &sdk.CallToolRequest{}, BuildInput{Path: path})
	if err != nil {
		t.Fatalf("handleBuild() error = %v", err)
	}
	if out.Valid || out.Plan != "" || out.Fingerprint != "" {
		t.Errorf("handleBuild() produced plan output for invalid document: %+v", out)
	}
}

func TestHandleHistory_RecordsRuns(t *testing.T) {
	s := setupServer(t)
	path := writeDoc(t, s, "experiment.yaml", validDoc)
	ctx := context.Background()

	if _, _, err := s.handleValidate(ctx, &sdk.CallToolRequest{}, ValidateInput{Path: path}); err != nil {
		t.Fatalf("handleValidate() error = %v", err)
	}
	if _, _, err := s.handleBuild(ctx, &sdk.CallToolRequest{}, BuildInput{Path: path}); err != nil {
		t.Fatalf("handleBuild() error = %v", err)
	}

	_, out, err := s.handleHistory(ctx, &sdk.CallToolRequest{}, HistoryInput{})
	if err != nil {
		t.Fatalf("handleHistory() error = %v", err)
	}
	if out.Count != 2 {
		t.Fatalf("handleHistory() count = %d, want 2", out.Count)
	}
	// Newest first: the build run precedes the validate run.
	if out.Runs[0].Operation != "build" {
		t.Errorf("handleHistory() first run = %q, want build", out.Runs[0].Operation)
	}
	if out.Runs[0].PlanFingerprint == "" {
		t.Error("handleHistory() build run missing plan fingerprint")
	}
	if out.Runs[1].DocumentHash == "" {
		t.Error("handleHistory() validate run missing document hash")
	}
}
