// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog keeps a SQLite ledger of conversion outcomes so that a
// batch run can be inspected afterwards: which documents converted, which
// failed and why, and whether the output was cleaned.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/papertex/pkg/types"
)

// DefaultFile is the catalog database name inside the destination directory.
const DefaultFile = "papertex.db"

// Store manages the catalog database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			paper_id TEXT NOT NULL,
			run_id TEXT,
			source TEXT NOT NULL,
			output TEXT,
			title TEXT,
			url TEXT,
			status TEXT NOT NULL,
			error TEXT,
			cleaned INTEGER NOT NULL DEFAULT 0,
			converted_at TEXT NOT NULL,
			PRIMARY KEY (paper_id, source)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_status ON conversions(status)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record upserts conversion records keyed by paper and source document.
// A record with status none (output skipped because it already existed)
// never replaces a stored outcome. All records are written in one
// transaction.
func (s *Store) Record(ctx context.Context, records ...types.ConversionRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO conversions (paper_id, run_id, source, output, title, url, status, error, cleaned, converted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(paper_id, source) DO UPDATE SET
			run_id=excluded.run_id, output=excluded.output, title=excluded.title, url=excluded.url,
			status=excluded.status, error=excluded.error, cleaned=excluded.cleaned,
			converted_at=excluded.converted_at
		 WHERE excluded.status != ?`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		ts := r.ConvertedAt
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		_, err := stmt.ExecContext(ctx,
			r.PaperID, r.RunID, r.Source, r.Output, r.Title, r.URL,
			string(r.Status), r.Error, r.Cleaned, ts.Format(time.RFC3339Nano),
			string(types.ConversionNone),
		)
		if err != nil {
			return fmt.Errorf("recording %s/%s: %w", r.PaperID, filepath.Base(r.Source), err)
		}
	}
	return tx.Commit()
}

// Filter narrows List results. Empty fields match everything.
type Filter struct {
	PaperID string
	RunID   string
	Status  types.ConversionStatus
}

// List returns records matching f, ordered by paper and source.
func (s *Store) List(ctx context.Context, f Filter) ([]types.ConversionRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.PaperID != "" {
		where = append(where, "paper_id = ?")
		args = append(args, f.PaperID)
	}
	if f.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}

	query := `SELECT paper_id, run_id, source, output, title, url, status, error, cleaned, converted_at FROM conversions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY paper_id, source"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var records []types.ConversionRecord
	for rows.Next() {
		var (
			r                                 types.ConversionRecord
			runID, output, title, url, errMsg sql.NullString
			status, ts                        string
		)
		if err := rows.Scan(&r.PaperID, &runID, &r.Source, &output, &title, &url, &status, &errMsg, &r.Cleaned, &ts); err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}
		r.RunID = runID.String
		r.Output = output.String
		r.Title = title.String
		r.URL = url.String
		r.Error = errMsg.String
		r.Status = types.ConversionStatus(status)
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			r.ConvertedAt = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Counts returns the number of records per status.
func (s *Store) Counts(ctx context.Context) (map[types.ConversionStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, count(*) FROM conversions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting catalog: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.ConversionStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[types.ConversionStatus(status)] = n
	}
	return counts, rows.Err()
}

// exportFile is the top-level structure of a YAML export.
type exportFile struct {
	ExportedAt  time.Time                `yaml:"exported_at"`
	Conversions []types.ConversionRecord `yaml:"conversions"`
}

// ExportYAML writes the records matching f to w as YAML.
func (s *Store) ExportYAML(ctx context.Context, f Filter, w io.Writer) error {
	records, err := s.List(ctx, f)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(exportFile{ExportedAt: time.Now().UTC(), Conversions: records}); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return enc.Close()
}
