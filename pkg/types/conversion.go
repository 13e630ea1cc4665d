// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConversionStatus indicates the outcome of converting one header.
type ConversionStatus string

const (
	ConversionNone    ConversionStatus = "none"
	ConversionDone    ConversionStatus = "converted"
	ConversionPartial ConversionStatus = "partial"
	ConversionFailed  ConversionStatus = "failed"
)

// Conversion records one header converted by the batch driver.
type Conversion struct {
	// Header is the header path relative to the include directory
	// (e.g. "sys/stat.h").
	Header string `json:"header" yaml:"header"`

	// Output is the path of the written .pxd file.
	Output string `json:"output" yaml:"output"`

	Status ConversionStatus `json:"status" yaml:"status"`

	// SourceModTime is the header's modification time at conversion.
	SourceModTime time.Time `json:"source_mod_time" yaml:"source_mod_time"`

	// Declarations counts declarations written to the output.
	Declarations int `json:"declarations" yaml:"declarations"`

	// Skipped counts declarations that could not be rendered.
	Skipped int `json:"skipped" yaml:"skipped"`

	ConvertedAt time.Time `json:"converted_at" yaml:"converted_at"`

	// RunID identifies the batch run that wrote this record.
	RunID string `json:"run_id" yaml:"run_id"`
}
