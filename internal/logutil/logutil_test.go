// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logutil

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerOmitsTime(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, slog.LevelWarn)

	log.Info("hidden")
	log.Warn("skipping declaration", "name", "foo")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "time=")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "name=foo")
}

func TestLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, Level(true, false))
	assert.Equal(t, slog.LevelDebug, Level(true, true))
	assert.Equal(t, slog.LevelError, Level(false, true))
	assert.Equal(t, slog.LevelWarn, Level(false, false))
}
