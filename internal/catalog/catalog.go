// Package catalog persists a run history for validate and build
// invocations. Each run records the document identity (path + content
// hash), the outcome, diagnostic counts, and the plan fingerprint when
// one was produced, giving experiments a reproducibility audit trail.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// Run is one recorded pipeline invocation.
type Run struct {
	ID              string    `json:"id"`
	Operation       string    `json:"operation"` // "validate" or "build"
	Document        string    `json:"document"`
	DocumentHash    string    `json:"document_hash"`
	Outcome         string    `json:"outcome"` // "valid" or "invalid"
	FatalCount      int       `json:"fatal_count"`
	AdvisoryCount   int       `json:"advisory_count"`
	PlanFingerprint string    `json:"plan_fingerprint,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Catalog is a SQLite-backed run history rooted at a project
// directory; the database lives at .nrnexp/runs.db.
type Catalog struct {
	db   *sql.DB
	path string
}

// Open creates or opens the catalog under root.
func Open(root string) (*Catalog, error) {
	dir := filepath.Join(root, ".nrnexp")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}

	path := filepath.Join(dir, "runs.db")
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with a single writer

	if err := initSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize catalog schema: %w", err)
	}
	return &Catalog{db: db, path: path}, nil
}

// Record inserts a run. A zero ID or CreatedAt is filled in.
func (c *Catalog) Record(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO runs (id, operation, document, document_hash, outcome,
			fatal_count, advisory_count, plan_fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Operation, run.Document, run.DocumentHash, run.Outcome,
		run.FatalCount, run.AdvisoryCount, run.PlanFingerprint,
		run.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs, newest first. A non-positive
// limit returns everything.
func (c *Catalog) List(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, operation, document, document_hash, outcome,
			fatal_count, advisory_count, plan_fingerprint, created_at
		FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &r.Operation, &r.Document, &r.DocumentHash,
			&r.Outcome, &r.FatalCount, &r.AdvisoryCount, &r.PlanFingerprint, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", created, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// FindByDocumentHash returns all runs recorded for a document hash,
// newest first. Useful for checking whether a document ever built a
// different plan.
func (c *Catalog) FindByDocumentHash(ctx context.Context, hash string) ([]Run, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, operation, document, document_hash, outcome,
			fatal_count, advisory_count, plan_fingerprint, created_at
		FROM runs WHERE document_hash = ? ORDER BY created_at DESC, id`, hash)
	if err != nil {
		return nil, fmt.Errorf("find runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &r.Operation, &r.Document, &r.DocumentHash,
			&r.Outcome, &r.FatalCount, &r.AdvisoryCount, &r.PlanFingerprint, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", created, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close releases the database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}
