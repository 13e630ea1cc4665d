// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch converts a set of system headers into a directory tree of
// .pxd files, one per header.
package batch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pxdgen/internal/ctypesgen"
	"github.com/pdiddy/pxdgen/internal/pxd"
	"github.com/pdiddy/pxdgen/pkg/types"
)

const defaultIncludeDir = "/usr/include"

// Ledger is the subset of ledger.Ledger the driver needs.
type Ledger interface {
	Lookup(ctx context.Context, header string) (types.Conversion, bool, error)
	Record(ctx context.Context, c types.Conversion) error
}

// Result holds the outcome of a batch run.
type Result struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the number of headers processed.
func (r Result) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any header failed conversion.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Driver converts headers with an extractor and records outcomes in an
// optional ledger.
type Driver struct {
	cfg       types.BatchConfig
	extractor ctypesgen.Extractor
	ledger    Ledger
	logger    *slog.Logger
	now       func() time.Time
}

// NewDriver returns a Driver. ledger may be nil; logger nil uses
// slog.Default.
func NewDriver(cfg types.BatchConfig, ex ctypesgen.Extractor, ledger Ledger, logger *slog.Logger) *Driver {
	if cfg.IncludeDir == "" {
		cfg.IncludeDir = defaultIncludeDir
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{cfg: cfg, extractor: ex, ledger: ledger, logger: logger, now: time.Now}
}

// Run converts headers, up to cfg.Jobs at a time, printing one status line
// per header and a summary to w. Headers are named without the .h suffix,
// relative to the include directory (e.g. "sys/stat"). An empty list
// converts POSIXHeaders.
func (d *Driver) Run(ctx context.Context, headers []string, w io.Writer) Result {
	if len(headers) == 0 {
		headers = POSIXHeaders
	}
	runID := uuid.NewString()
	out := &syncWriter{w: w}

	var (
		mu     sync.Mutex
		result Result
		g      errgroup.Group
	)
	g.SetLimit(max(d.cfg.Jobs, 1))
	for _, h := range headers {
		g.Go(func() error {
			status := d.convertHeader(ctx, runID, strings.TrimSuffix(h, ".h"), out)
			mu.Lock()
			defer mu.Unlock()
			switch status {
			case types.ConversionDone, types.ConversionPartial:
				result.Converted++
			case types.ConversionNone:
				result.Skipped++
			case types.ConversionFailed:
				result.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	d.logger.Debug("batch finished", "run", runID)
	return result
}

// syncWriter serializes writes from concurrent conversions. Each status
// line is written with a single Write call.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// convertHeader converts one header and returns its status. ConversionNone
// means the header was skipped.
func (d *Driver) convertHeader(ctx context.Context, runID, header string, w io.Writer) types.ConversionStatus {
	if err := ctx.Err(); err != nil {
		fmt.Fprintf(w, "failed:    %s (%v)\n", header, err)
		return types.ConversionFailed
	}

	src := filepath.Join(d.cfg.IncludeDir, header+".h")
	info, err := os.Stat(src)
	if err != nil || !info.Mode().IsRegular() {
		fmt.Fprintf(w, "skipped:   %s (no such header)\n", header)
		return types.ConversionNone
	}

	dest := filepath.Join(d.cfg.DestDir, header+".pxd")
	if reason, skip := d.upToDate(ctx, header, dest, info.ModTime()); skip {
		fmt.Fprintf(w, "skipped:   %s (%s)\n", header, reason)
		return types.ConversionNone
	}

	stats, err := d.convert(ctx, header, src, dest)
	status := types.ConversionDone
	switch {
	case err != nil:
		status = types.ConversionFailed
		fmt.Fprintf(w, "failed:    %s (%v)\n", header, err)
	case stats.NotEmitted() > 0:
		status = types.ConversionPartial
		fmt.Fprintf(w, "converted: %s (%d declarations, %d skipped)\n", header, stats.Emitted, stats.NotEmitted())
	default:
		fmt.Fprintf(w, "converted: %s (%d declarations)\n", header, stats.Emitted)
	}

	if d.ledger != nil {
		rec := types.Conversion{
			Header:        header,
			Output:        dest,
			Status:        status,
			SourceModTime: info.ModTime(),
			Declarations:  stats.Emitted,
			Skipped:       stats.NotEmitted(),
			ConvertedAt:   d.now(),
			RunID:         runID,
		}
		if err := d.ledger.Record(ctx, rec); err != nil {
			d.logger.Warn("ledger update failed", "header", header, "error", err)
		}
	}
	return status
}

// upToDate decides whether an existing output can be kept.
func (d *Driver) upToDate(ctx context.Context, header, dest string, modTime time.Time) (string, bool) {
	if _, err := os.Stat(dest); err != nil || d.cfg.Force {
		return "", false
	}
	if d.ledger == nil {
		return "already exists", true
	}
	prev, ok, err := d.ledger.Lookup(ctx, header)
	if err != nil {
		d.logger.Warn("ledger lookup failed", "header", header, "error", err)
		return "already exists", true
	}
	if ok && (!prev.SourceModTime.Equal(modTime) || prev.Status == types.ConversionFailed) {
		return "", false
	}
	return "up to date", true
}

func (d *Driver) convert(ctx context.Context, header, src, dest string) (pxd.Stats, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return pxd.Stats{}, fmt.Errorf("reading header: %w", err)
	}

	d.logger.Info("converting", "header", src)
	decls, err := d.extractor.Extract(ctx, data)
	if err != nil {
		return pxd.Stats{}, fmt.Errorf("extracting declarations: %w", err)
	}

	cfg := d.cfg.Convert
	cfg.ImportFrom = `"<` + header + `.h>"`

	var out bytes.Buffer
	stats, err := pxd.ConvertBytes(decls, &out, cfg, d.logger.With("header", header))
	if err != nil {
		return stats, err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return stats, fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(dest, out.Bytes(), 0o644); err != nil {
		return stats, fmt.Errorf("writing %s: %w", dest, err)
	}
	return stats, nil
}
