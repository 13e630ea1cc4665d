// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConvertConfig holds settings for rendering a .pxd file.
type ConvertConfig struct {
	// ImportFrom is the header spelled after "cdef extern from", including
	// quotes or angle brackets (e.g. `"foo.h"`). Empty means "*".
	ImportFrom string `json:"import_from" yaml:"import_from"`

	// IndentLevel shifts all output right by four spaces per level.
	IndentLevel int `json:"indent_level" yaml:"indent_level"`

	// GIL keeps the global interpreter lock; when false the extern block is
	// declared nogil.
	GIL bool `json:"gil" yaml:"gil"`

	// NoIncludes suppresses the libc.stddef/libc.stdint cimport prelude.
	NoIncludes bool `json:"no_includes" yaml:"no_includes"`

	// Strict makes a malformed declaration fatal instead of skipping it.
	Strict bool `json:"strict" yaml:"strict"`

	// Annotate writes a "# ..." comment into the output for every skipped
	// declaration.
	Annotate bool `json:"annotate" yaml:"annotate"`
}

// InputType selects how an input file is interpreted.
type InputType string

const (
	InputAuto   InputType = "auto"
	InputJSON   InputType = "json"
	InputHeader InputType = "h"
)

// ExtractorConfig holds settings for running the header-to-JSON extractor.
type ExtractorConfig struct {
	// Binary is the extractor executable (default "ctypesgen").
	Binary string `json:"binary" yaml:"binary"`

	// Args are extra arguments passed before the fixed JSON output flags.
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`

	// Timeout bounds a single extractor run (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Quiet captures extractor diagnostics instead of streaming them to stderr.
	Quiet bool `json:"quiet" yaml:"quiet"`

	// Image runs the extractor inside this container image instead of on the
	// host when set.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
}

// BatchConfig holds settings for converting a set of system headers.
type BatchConfig struct {
	// IncludeDir is the directory headers are read from (default /usr/include).
	IncludeDir string `json:"include_dir" yaml:"include_dir"`

	// DestDir is the directory .pxd files are written to.
	DestDir string `json:"dest_dir" yaml:"dest_dir"`

	// LedgerPath is the SQLite database recording conversions. Empty
	// disables the ledger.
	LedgerPath string `json:"ledger_path" yaml:"ledger_path"`

	// Force reconverts headers whose output already exists.
	Force bool `json:"force" yaml:"force"`

	// Jobs is the number of headers converted at once (default 1).
	Jobs int `json:"jobs" yaml:"jobs"`

	Convert   ConvertConfig   `json:"convert" yaml:"convert"`
	Extractor ExtractorConfig `json:"extractor" yaml:"extractor"`
}
