package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/reprosim/nrnexp/internal/catalog"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded validation and build runs",
		Long: `List the runs recorded in the project's run catalog, newest first.

Each run records the document identity, outcome, diagnostic counts,
and the plan fingerprint when a plan was assembled.

Examples:
  nrnexp history               # Last 20 runs
  nrnexp history --limit 5     # Last 5 runs
  nrnexp history --json        # Machine-readable output`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, jsonOut, _ := globalFlags(cmd)
			limit, _ := cmd.Flags().GetInt("limit")

			cat, err := catalog.Open(root)
			if err != nil {
				return fmt.Errorf("open run catalog: %w", err)
			}
			defer cat.Close()

			runs, err := cat.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"runs":  runs,
					"count": len(runs),
				})
			}

			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tOP\tDOCUMENT\tOUTCOME\tFATAL\tADVISORY\tFINGERPRINT")
			for _, r := range runs {
				fp := r.PlanFingerprint
				if len(fp) > 12 {
					fp = fp[:12]
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					r.CreatedAt.Local().Format(time.RFC3339),
					r.Operation, r.Document, r.Outcome,
					r.FatalCount, r.AdvisoryCount, fp)
			}
			return w.Flush()
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to show")

	return cmd
}
