package mcp

import (
	"context"
	"fmt"
	"path/filepath"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/reprosim/nrnexp/internal/catalog"
	"github.com/reprosim/nrnexp/internal/diag"
	"github.com/reprosim/nrnexp/internal/document"
	"github.com/reprosim/nrnexp/internal/pipeline"
)

const defaultHistoryLimit = 20

func (s *Server) handleValidate(ctx context.Context, req *sdk.CallToolRequest, args ValidateInput) (*sdk.CallToolResult, ValidateOutput, error) {
	if args.Path == "" {
		return nil, ValidateOutput{}, fmt.Errorf("path is required")
	}

	res, hash, err := s.runValidate(args.Path, args.Strict)
	if err != nil {
		return nil, ValidateOutput{}, err
	}

	s.recordRun(ctx, "validate", args.Path, hash, res, "")

	out := ValidateOutput{
		Valid:       res.Valid(),
		Fatal:       res.Report.Count(diag.SeverityFatal),
		Advisory:    res.Report.Count(diag.SeverityAdvisory),
		Diagnostics: diagnostics(res),
	}
	if out.Valid {
		out.Message = fmt.Sprintf("Document is valid (%d advisory diagnostic(s))", out.Advisory)
	} else {
		out.Message = fmt.Sprintf("Document is invalid: %d fatal, %d advisory diagnostic(s)", out.Fatal, out.Advisory)
	}
	return nil, out, nil
}

func (s *Server) handleBuild(ctx context.Context, req *sdk.CallToolRequest, args BuildInput) (*sdk.CallToolResult, BuildOutput, error) {
	if args.Path == "" {
		return nil, BuildOutput{}, fmt.Errorf("path is required")
	}

	path := s.resolve(args.Path)
	root, err := document.LoadFile(path)
	if err != nil {
		return nil, BuildOutput{}, fmt.Errorf("load document: %w", err)
	}

	res, err := pipeline.Build(root, pipeline.Options{Strict: args.Strict})
	if err != nil {
		return nil, BuildOutput{}, fmt.Errorf("assemble plan: %w", err)
	}

	hash := documentHash(res)

	out := BuildOutput{
		Valid:       res.Valid(),
		Diagnostics: diagnostics(res),
	}
	if res.Plan != nil {
		fp, err := res.Plan.Fingerprint()
		if err != nil {
			return nil, BuildOutput{}, fmt.Errorf("fingerprint plan: %w", err)
		}
		encoded, err := res.Plan.EncodeJSON()
		if err != nil {
			return nil, BuildOutput{}, fmt.Errorf("encode plan: %w", err)
		}
		out.Fingerprint = fp
		out.StepCount = len(res.Plan.Steps)
		out.Plan = string(encoded)
		out.Message = fmt.Sprintf("Assembled plan with %d step(s), fingerprint %s", out.StepCount, fp[:12])
	} else {
		out.Message = fmt.Sprintf("Document is invalid: %d fatal diagnostic(s), no plan produced",
			res.Report.Count(diag.SeverityFatal))
	}

	s.recordRun(ctx, "build", args.Path, hash, res, out.Fingerprint)
	return nil, out, nil
}

func (s *Server) handleHistory(ctx context.Context, req *sdk.CallToolRequest, args HistoryInput) (*sdk.CallToolResult, HistoryOutput, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	runs, err := s.catalog.List(ctx, limit)
	if err != nil {
		return nil, HistoryOutput{}, fmt.Errorf("list runs: %w", err)
	}

	items := make([]RunListItem, 0, len(runs))
	for _, r := range runs {
		items = append(items, RunListItem{
			ID:              r.ID,
			Operation:       r.Operation,
			Document:        r.Document,
			DocumentHash:    r.DocumentHash,
			Outcome:         r.Outcome,
			FatalCount:      r.FatalCount,
			AdvisoryCount:   r.AdvisoryCount,
			PlanFingerprint: r.PlanFingerprint,
			CreatedAt:       r.CreatedAt,
		})
	}
	return nil, HistoryOutput{Runs: items, Count: len(items)}, nil
}

// runValidate loads and validates a document, returning the result and
// the document content hash when one could be computed.
func (s *Server) runValidate(path string, strict bool) (*pipeline.Result, string, error) {
	root, err := document.LoadFile(s.resolve(path))
	if err != nil {
		return nil, "", fmt.Errorf("load document: %w", err)
	}

	res, err := pipeline.Validate(root, pipeline.Options{Strict: strict})
	if err != nil {
		return nil, "", fmt.Errorf("validate document: %w", err)
	}
	return res, documentHash(res), nil
}

// recordRun writes the run to the catalog. Recording failures are not
// surfaced to the tool caller; history is a convenience, not a gate.
func (s *Server) recordRun(ctx context.Context, op, path, hash string, res *pipeline.Result, fingerprint string) {
	outcome := "invalid"
	if res.Valid() {
		outcome = "valid"
	}
	_, _ = s.catalog.Record(ctx, catalog.Run{
		Operation:       op,
		Document:        path,
		DocumentHash:    hash,
		Outcome:         outcome,
		FatalCount:      res.Report.Count(diag.SeverityFatal),
		AdvisoryCount:   res.Report.Count(diag.SeverityAdvisory),
		PlanFingerprint: fingerprint,
	})
}

func (s *Server) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.root, path)
}

// diagnostics never returns nil so JSON output carries an empty array.
func diagnostics(res *pipeline.Result) []diag.Diagnostic {
	if res.Report.Diagnostics == nil {
		return []diag.Diagnostic{}
	}
	return res.Report.Diagnostics
}

func documentHash(res *pipeline.Result) string {
	if res.Document == nil {
		return ""
	}
	hash, err := document.Hash(res.Document)
	if err != nil {
		return ""
	}
	return hash
}
