package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/reprosim/nrnexp/internal/catalog"
	"github.com/reprosim/nrnexp/internal/diag"
	"github.com/reprosim/nrnexp/internal/document"
	"github.com/reprosim/nrnexp/internal/logging"
	"github.com/reprosim/nrnexp/internal/pipeline"
	"github.com/spf13/cobra"
)

// globalFlags reads the persistent flags every command consumes.
func globalFlags(cmd *cobra.Command) (root string, jsonOut bool, logger *slog.Logger) {
	root, _ = cmd.Flags().GetString("root")
	jsonOut, _ = cmd.Flags().GetBool("json")
	level, _ := cmd.Flags().GetString("log-level")
	logger = logging.NewLogger(level, cmd.ErrOrStderr())
	return root, jsonOut, logger
}

// resolvePath joins a document path with the project root unless it is
// already absolute.
func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// printDiagnostics writes the human-readable diagnostic listing with a
// closing count line.
func printDiagnostics(w io.Writer, report *diag.Report) {
	if report.Len() == 0 {
		fmt.Fprintln(w, "No diagnostics.")
		return
	}
	fmt.Fprint(w, report.Render())
	fmt.Fprintf(w, "\n%d fatal, %d advisory\n",
		report.Count(diag.SeverityFatal), report.Count(diag.SeverityAdvisory))
}

// recordRun appends the invocation to the run catalog. Failures are
// logged and swallowed; history is a convenience, not a gate.
func recordRun(root string, logger *slog.Logger, op, docPath string, res *pipeline.Result, fingerprint string) {
	cat, err := catalog.Open(root)
	if err != nil {
		logger.Warn("run catalog unavailable", "error", err)
		return
	}
	defer cat.Close()

	outcome := "invalid"
	if res.Valid() {
		outcome = "valid"
	}
	hash := ""
	if res.Document != nil {
		if h, err := document.Hash(res.Document); err == nil {
			hash = h
		}
	}

	_, err = cat.Record(context.Background(), catalog.Run{
		Operation:       op,
		Document:        docPath,
		DocumentHash:    hash,
		Outcome:         outcome,
		FatalCount:      res.Report.Count(diag.SeverityFatal),
		AdvisoryCount:   res.Report.Count(diag.SeverityAdvisory),
		PlanFingerprint: fingerprint,
	})
	if err != nil {
		logger.Warn("failed to record run", "error", err)
	}
}
