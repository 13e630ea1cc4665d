// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records batch header conversions in a SQLite database so
// later runs can tell which outputs are stale.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pxdgen/pkg/types"
)

// Ledger manages the conversions table.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	// Concurrent batch jobs share one connection so writes never contend.
	db.SetMaxOpenConns(1)

	l := &Ledger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	_, err := l.db.Exec(`CREATE TABLE IF NOT EXISTS conversions (
		header TEXT PRIMARY KEY,
		output TEXT NOT NULL,
		status TEXT NOT NULL,
		source_mod_time TEXT,
		declarations INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		converted_at TEXT NOT NULL,
		run_id TEXT NOT NULL DEFAULT ''
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Record inserts or replaces the entry for c.Header.
func (l *Ledger) Record(ctx context.Context, c types.Conversion) error {
	if c.ConvertedAt.IsZero() {
		c.ConvertedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO conversions (header, output, status, source_mod_time, declarations, skipped, converted_at, run_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(header) DO UPDATE SET
			output=excluded.output, status=excluded.status,
			source_mod_time=excluded.source_mod_time,
			declarations=excluded.declarations, skipped=excluded.skipped,
			converted_at=excluded.converted_at, run_id=excluded.run_id`,
		c.Header, c.Output, string(c.Status), formatTime(c.SourceModTime),
		c.Declarations, c.Skipped, formatTime(c.ConvertedAt), c.RunID,
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", c.Header, err)
	}
	return nil
}

// Lookup returns the entry for header. ok is false when none exists.
func (l *Ledger) Lookup(ctx context.Context, header string) (c types.Conversion, ok bool, err error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT header, output, status, source_mod_time, declarations, skipped, converted_at, run_id
		 FROM conversions WHERE header = ?`, header)
	c, err = scanConversion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Conversion{}, false, nil
	}
	if err != nil {
		return types.Conversion{}, false, fmt.Errorf("looking up %s: %w", header, err)
	}
	return c, true, nil
}

// List returns every entry ordered by header.
func (l *Ledger) List(ctx context.Context) ([]types.Conversion, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT header, output, status, source_mod_time, declarations, skipped, converted_at, run_id
		 FROM conversions ORDER BY header`)
	if err != nil {
		return nil, fmt.Errorf("listing conversions: %w", err)
	}
	defer rows.Close()

	var out []types.Conversion
	for rows.Next() {
		c, err := scanConversion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning conversion: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ExportYAML writes every entry to w as a YAML list.
func (l *Ledger) ExportYAML(ctx context.Context, w io.Writer) error {
	list, err := l.List(ctx)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(nonNil(list)); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes every entry to w as an indented JSON array.
func (l *Ledger) ExportJSON(ctx context.Context, w io.Writer) error {
	list, err := l.List(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(nonNil(list), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConversion(s scanner) (types.Conversion, error) {
	var (
		c                  types.Conversion
		status             string
		modTime, converted sql.NullString
	)
	if err := s.Scan(&c.Header, &c.Output, &status, &modTime, &c.Declarations, &c.Skipped, &converted, &c.RunID); err != nil {
		return types.Conversion{}, err
	}
	c.Status = types.ConversionStatus(status)
	c.SourceModTime = parseTime(modTime.String)
	c.ConvertedAt = parseTime(converted.String)
	return c, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nonNil(list []types.Conversion) []types.Conversion {
	if list == nil {
		return []types.Conversion{}
	}
	return list
}
