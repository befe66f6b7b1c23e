package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/reprosim/nrnexp/internal/diag"
	"github.com/reprosim/nrnexp/internal/document"
	"github.com/reprosim/nrnexp/internal/engine"
	"github.com/reprosim/nrnexp/internal/pipeline"
	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <document>",
		Short: "Assemble a build plan from an experiment document",
		Long: `Validate an experiment document and assemble its deterministic build
plan. The same document always yields a bit-identical plan, so the
plan fingerprint identifies the experiment configuration.

Examples:
  nrnexp build experiment.yaml                      # Plan to stdout (JSON)
  nrnexp build experiment.yaml --format yaml        # Plan as YAML
  nrnexp build experiment.yaml --out plan.json      # Plan to a file
  nrnexp build experiment.yaml --dry-run            # Check executability only`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, jsonOut, logger := globalFlags(cmd)
			strict, _ := cmd.Flags().GetBool("strict")
			format, _ := cmd.Flags().GetString("format")
			outPath, _ := cmd.Flags().GetString("out")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			if format != "json" && format != "yaml" {
				return fmt.Errorf("invalid format: %s (must be json or yaml)", format)
			}

			docRoot, err := document.LoadFile(resolvePath(root, args[0]))
			if err != nil {
				return fmt.Errorf("load document: %w", err)
			}

			res, err := pipeline.Build(docRoot, pipeline.Options{Strict: strict})
			if err != nil {
				return fmt.Errorf("assemble plan: %w", err)
			}

			fingerprint := ""
			if res.Plan != nil {
				if fingerprint, err = res.Plan.Fingerprint(); err != nil {
					return fmt.Errorf("fingerprint plan: %w", err)
				}
			}
			recordRun(root, logger, "build", args[0], res, fingerprint)

			if !res.Valid() {
				if jsonOut {
					if err := outputValidation(cmd.OutOrStdout(), res, true); err != nil {
						return err
					}
				} else {
					printDiagnostics(cmd.OutOrStdout(), &res.Report)
				}
				return fmt.Errorf("document has %d fatal diagnostic(s), no plan produced",
					res.Report.Count(diag.SeverityFatal))
			}

			// Advisories still print even when a plan is emitted.
			if res.Report.Len() > 0 && !jsonOut {
				printDiagnostics(cmd.ErrOrStderr(), &res.Report)
			}

			if dryRun {
				trace := engine.NewTraceAdapter()
				if err := engine.Execute(context.Background(), res.Plan, trace); err != nil {
					return fmt.Errorf("plan not executable: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Plan executable: %d step(s), fingerprint %s\n",
					len(res.Plan.Steps), fingerprint)
				return nil
			}

			var encoded []byte
			if format == "yaml" {
				encoded, err = res.Plan.EncodeYAML()
			} else {
				encoded, err = res.Plan.EncodeJSON()
			}
			if err != nil {
				return fmt.Errorf("encode plan: %w", err)
			}

			if outPath != "" {
				if err := os.WriteFile(resolvePath(root, outPath), encoded, 0644); err != nil {
					return fmt.Errorf("write plan: %w", err)
				}
				logger.Info("plan written",
					"path", outPath,
					"steps", len(res.Plan.Steps),
					"fingerprint", fingerprint)
				return nil
			}

			if jsonOut && format == "json" {
				// Wrap the plan with the report for agent consumption.
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"fingerprint": fingerprint,
					"plan":        res.Plan,
					"report":      res.Report,
				})
			}

			_, err = cmd.OutOrStdout().Write(encoded)
			return err
		},
	}

	cmd.Flags().Bool("strict", false, "Treat advisory diagnostics as fatal")
	cmd.Flags().String("format", "json", "Plan output format: json or yaml")
	cmd.Flags().String("out", "", "Write the plan to a file instead of stdout")
	cmd.Flags().Bool("dry-run", false, "Execute the plan against a trace adapter without emitting it")

	return cmd
}
