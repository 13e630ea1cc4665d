// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logutil builds the slog logger used for diagnostics on stderr.
package logutil

import (
	"io"
	"log/slog"
)

// NewLogger returns a text logger writing to w at level. Timestamps are
// dropped; diagnostics read like compiler warnings.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) == 0 && attr.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return attr
		},
	}))
}

// Level maps the CLI verbosity flags to a slog level.
func Level(verbose, quiet bool) slog.Level {
	switch {
	case verbose:
		return slog.LevelDebug
	case quiet:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
