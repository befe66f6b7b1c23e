package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/reprosim/nrnexp/internal/diag"
	"github.com/reprosim/nrnexp/internal/document"
	"github.com/reprosim/nrnexp/internal/pipeline"
	"github.com/reprosim/nrnexp/internal/watch"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Validate an experiment document",
		Long: `Validate an experiment document against the schema contract and
cross-reference rules.

Every defect is reported with a dotted path into the document
(e.g. model.morphology.sections.axon.L). The command exits non-zero
when any fatal diagnostic is found.

Examples:
  nrnexp validate experiment.yaml             # One-shot validation
  nrnexp validate experiment.yaml --strict    # Advisories become fatal
  nrnexp validate experiment.yaml --watch     # Re-validate on save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, jsonOut, logger := globalFlags(cmd)
			strict, _ := cmd.Flags().GetBool("strict")
			watchMode, _ := cmd.Flags().GetBool("watch")

			path := resolvePath(root, args[0])
			if watchMode {
				return watchValidate(cmd, path, root, args[0], strict, jsonOut, logger)
			}

			res, err := validateOnce(path, strict)
			if err != nil {
				return err
			}
			recordRun(root, logger, "validate", args[0], res, "")

			if err := outputValidation(cmd.OutOrStdout(), res, jsonOut); err != nil {
				return err
			}
			if !res.Valid() {
				return fmt.Errorf("document has %d fatal diagnostic(s)",
					res.Report.Count(diag.SeverityFatal))
			}
			return nil
		},
	}

	cmd.Flags().Bool("strict", false, "Treat advisory diagnostics as fatal")
	cmd.Flags().Bool("watch", false, "Re-validate whenever the document changes")

	return cmd
}

func validateOnce(path string, strict bool) (*pipeline.Result, error) {
	root, err := document.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	res, err := pipeline.Validate(root, pipeline.Options{Strict: strict})
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}
	return res, nil
}

// validationOutput is the JSON shape of a validate invocation.
type validationOutput struct {
	Valid       bool        `json:"valid"`
	Fatal       int         `json:"fatal"`
	Advisory    int         `json:"advisory"`
	Diagnostics diag.Report `json:"report"`
	Summary     *docSummary `json:"summary,omitempty"`
}

// docSummary condenses a valid document for quick inspection.
type docSummary struct {
	Name       string  `json:"name"`
	Morphology string  `json:"morphology"`
	Sections   int     `json:"sections"`
	Stimuli    int     `json:"stimuli"`
	Recordings int     `json:"recordings"`
	TstopMs    float64 `json:"tstop_ms"`
	DtMs       float64 `json:"dt_ms"`
}

func summarize(doc *document.Document) *docSummary {
	if doc == nil {
		return nil
	}
	return &docSummary{
		Name:       doc.Metadata.Name,
		Morphology: doc.Model.Morphology.Type,
		Sections:   len(doc.Model.Morphology.Sections),
		Stimuli:    len(doc.Stimuli),
		Recordings: len(doc.Recordings),
		TstopMs:    doc.Simulation.TstopMs,
		DtMs:       doc.Simulation.DtMs,
	}
}

func outputValidation(w io.Writer, res *pipeline.Result, jsonOut bool) error {
	if jsonOut {
		out := validationOutput{
			Valid:       res.Valid(),
			Fatal:       res.Report.Count(diag.SeverityFatal),
			Advisory:    res.Report.Count(diag.SeverityAdvisory),
			Diagnostics: res.Report,
		}
		if res.Valid() {
			out.Summary = summarize(res.Document)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printDiagnostics(w, &res.Report)
	if res.Valid() {
		if s := summarize(res.Document); s != nil {
			fmt.Fprintf(w, "Valid: %q (%s, %d section(s), %d stimulus(es), %d recording(s), tstop %gms)\n",
				s.Name, s.Morphology, s.Sections, s.Stimuli, s.Recordings, s.TstopMs)
		} else {
			fmt.Fprintln(w, "Valid.")
		}
	}
	return nil
}

// watchValidate re-runs validation every time the document content
// changes, until interrupted.
func watchValidate(cmd *cobra.Command, path, root, docArg string, strict, jsonOut bool, logger *slog.Logger) error {
	w, err := watch.New(path, 0, logger)
	if err != nil {
		return fmt.Errorf("watch document: %w", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	// Validate once up front, then on every change.
	runOnce := func() {
		res, err := validateOnce(path, strict)
		if err != nil {
			logger.Error("validation run failed", "error", err)
			return
		}
		recordRun(root, logger, "validate", docArg, res, "")
		if err := outputValidation(cmd.OutOrStdout(), res, jsonOut); err != nil {
			logger.Error("output failed", "error", err)
		}
	}
	runOnce()

	for range w.Events() {
		runOnce()
	}
	return nil
}
