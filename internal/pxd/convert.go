// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pxd renders C declarations as a Cython .pxd file.
//
// The output is a best-effort starting point for manual editing: every
// recognized declaration becomes one statement or block inside a single
// "cdef extern from" block, in input order. Declarations of unknown kinds are
// dropped; declarations that cannot be expressed are skipped with a warning.
package pxd

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pxdgen/internal/decl"
	"github.com/pdiddy/pxdgen/pkg/types"
)

// Convert reads one JSON declaration document from r and writes the
// equivalent .pxd text to w. Nothing is written to w when the input cannot
// be parsed or, in strict mode, when a declaration is malformed.
func Convert(r io.Reader, w io.Writer, cfg types.ConvertConfig, logger *slog.Logger) (Stats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Stats{}, fmt.Errorf("reading input: %w", err)
	}
	return ConvertBytes(data, w, cfg, logger)
}

// ConvertBytes is Convert for input already in memory.
func ConvertBytes(data []byte, w io.Writer, cfg types.ConvertConfig, logger *slog.Logger) (Stats, error) {
	doc, err := decl.Decode(data)
	if err != nil {
		return Stats{}, err
	}

	var buf bytes.Buffer
	stats, err := NewRenderer(cfg, logger).Render(&buf, doc)
	if err != nil {
		return stats, err
	}
	if _, err := buf.WriteTo(w); err != nil {
		return stats, fmt.Errorf("writing output: %w", err)
	}
	return stats, nil
}

// DetectInputType resolves InputAuto from the file extension of path, then
// from the first non-space byte of data: JSON documents start with '[' or '{'.
func DetectInputType(path string, data []byte) types.InputType {
	switch filepath.Ext(path) {
	case ".json":
		return types.InputJSON
	case ".h":
		return types.InputHeader
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return types.InputJSON
	}
	return types.InputHeader
}

// DefaultImportFrom returns the quoted header name for an input path: the
// basename with a .json extension replaced by .h. It returns "" for stdin.
func DefaultImportFrom(path string) string {
	if path == "" || path == "-" {
		return ""
	}
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext == ".json" {
		base = strings.TrimSuffix(base, ext) + ".h"
	}
	return `"` + base + `"`
}
