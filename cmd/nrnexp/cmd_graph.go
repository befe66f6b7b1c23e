package main

import (
	"encoding/json"
	"fmt"

	"github.com/reprosim/nrnexp/internal/diag"
	"github.com/reprosim/nrnexp/internal/document"
	"github.com/reprosim/nrnexp/internal/pipeline"
	"github.com/reprosim/nrnexp/internal/visualization"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <document>",
		Short: "Visualize the morphology graph of an experiment",
		Long: `Output the experiment's morphology graph in DOT (Graphviz) or JSON
format. The document must pass validation and graph construction;
structural defects (cycles, multiple roots, disconnected sections)
are reported instead.

Examples:
  nrnexp graph experiment.yaml                   # DOT to stdout
  nrnexp graph experiment.yaml --format json     # JSON nodes and edges
  nrnexp graph experiment.yaml | dot -Tsvg -o morphology.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _, _ := globalFlags(cmd)
			format, _ := cmd.Flags().GetString("format")

			docRoot, err := document.LoadFile(resolvePath(root, args[0]))
			if err != nil {
				return fmt.Errorf("load document: %w", err)
			}

			res, err := pipeline.Build(docRoot, pipeline.Options{})
			if err != nil {
				return fmt.Errorf("build graph: %w", err)
			}
			if res.Graph == nil {
				printDiagnostics(cmd.OutOrStdout(), &res.Report)
				return fmt.Errorf("document has %d fatal diagnostic(s), no graph produced",
					res.Report.Count(diag.SeverityFatal))
			}

			switch visualization.Format(format) {
			case visualization.FormatDOT:
				fmt.Fprint(cmd.OutOrStdout(), visualization.RenderDOT(res.Document, res.Graph))

			case visualization.FormatJSON:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(visualization.RenderJSON(res.Document, res.Graph)); err != nil {
					return fmt.Errorf("encode JSON: %w", err)
				}

			default:
				return fmt.Errorf("invalid format: %s (must be dot or json)", format)
			}
			return nil
		},
	}

	cmd.Flags().String("format", "dot", "Output format: dot or json")

	return cmd
}
