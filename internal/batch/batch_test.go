// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pxdgen/pkg/types"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeExtractor returns a fixed document per header text.
type fakeExtractor struct {
	mu    sync.Mutex
	calls int
	out   map[string]string
	err   error
}

func (f *fakeExtractor) Extract(_ context.Context, header []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if out, ok := f.out[string(header)]; ok {
		return []byte(out), nil
	}
	return []byte(`[{"type":"function","name":"f","return":{"Klass":"CtypesSimple","name":"int","signed":true}}]`), nil
}

// memLedger is an in-memory Ledger.
type memLedger struct {
	mu      sync.Mutex
	entries map[string]types.Conversion
}

func newMemLedger() *memLedger { return &memLedger{entries: map[string]types.Conversion{}} }

func (m *memLedger) Lookup(_ context.Context, header string) (types.Conversion, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.entries[header]
	return c, ok, nil
}

func (m *memLedger) Record(_ context.Context, c types.Conversion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[c.Header] = c
	return nil
}

func writeHeader(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name+".h")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T) types.BatchConfig {
	t.Helper()
	root := t.TempDir()
	return types.BatchConfig{
		IncludeDir: filepath.Join(root, "include"),
		DestDir:    filepath.Join(root, "out"),
		Convert:    types.ConvertConfig{NoIncludes: true},
	}
}

func TestRunConvertsHeaders(t *testing.T) {
	cfg := testConfig(t)
	writeHeader(t, cfg.IncludeDir, "stdio", "int f(void);")
	writeHeader(t, cfg.IncludeDir, "sys/stat", "int f(void);")

	var log bytes.Buffer
	result := NewDriver(cfg, &fakeExtractor{}, nil, quietLogger).
		Run(context.Background(), []string{"stdio", "sys/stat.h", "missing"}, &log)

	assert.Equal(t, Result{Converted: 2, Skipped: 1}, result)
	assert.False(t, result.HasFailures())
	assert.Equal(t, 3, result.Total())

	data, err := os.ReadFile(filepath.Join(cfg.DestDir, "sys", "stat.pxd"))
	require.NoError(t, err)
	assert.Equal(t, "cdef extern from \"<sys/stat.h>\" nogil:\n    int f()\n\n", string(data))

	out := log.String()
	assert.Contains(t, out, "converted: stdio (1 declarations)")
	assert.Contains(t, out, "skipped:   missing (no such header)")
	assert.Contains(t, out, "Batch summary: 2 converted, 1 skipped, 0 failed (total: 3)")
}

func TestRunSkipsExistingOutput(t *testing.T) {
	cfg := testConfig(t)
	writeHeader(t, cfg.IncludeDir, "errno", "x")
	require.NoError(t, os.MkdirAll(cfg.DestDir, 0o755))
	dest := filepath.Join(cfg.DestDir, "errno.pxd")
	require.NoError(t, os.WriteFile(dest, []byte("# hand edited\n"), 0o644))

	t.Run("kept without force", func(t *testing.T) {
		ex := &fakeExtractor{}
		var log bytes.Buffer
		result := NewDriver(cfg, ex, nil, quietLogger).Run(context.Background(), []string{"errno"}, &log)
		assert.Equal(t, 1, result.Skipped)
		assert.Zero(t, ex.calls)
		assert.Contains(t, log.String(), "already exists")

		data, _ := os.ReadFile(dest)
		assert.Equal(t, "# hand edited\n", string(data))
	})

	t.Run("replaced with force", func(t *testing.T) {
		forced := cfg
		forced.Force = true
		result := NewDriver(forced, &fakeExtractor{}, nil, quietLogger).Run(context.Background(), []string{"errno"}, io.Discard)
		assert.Equal(t, 1, result.Converted)

		data, _ := os.ReadFile(dest)
		assert.Contains(t, string(data), "int f()")
	})
}

func TestRunLedgerStaleness(t *testing.T) {
	cfg := testConfig(t)
	src := writeHeader(t, cfg.IncludeDir, "time", "x")
	ledger := newMemLedger()
	ex := &fakeExtractor{}
	d := NewDriver(cfg, ex, ledger, quietLogger)
	d.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	result := d.Run(context.Background(), []string{"time"}, io.Discard)
	require.Equal(t, 1, result.Converted)

	rec, ok := ledger.entries["time"]
	require.True(t, ok)
	assert.Equal(t, types.ConversionDone, rec.Status)
	assert.Equal(t, 1, rec.Declarations)
	assert.Equal(t, filepath.Join(cfg.DestDir, "time.pxd"), rec.Output)
	assert.Equal(t, d.now(), rec.ConvertedAt)
	assert.Len(t, rec.RunID, 36)

	var log bytes.Buffer
	result = d.Run(context.Background(), []string{"time"}, &log)
	assert.Equal(t, 1, result.Skipped)
	assert.Contains(t, log.String(), "up to date")
	assert.Equal(t, 1, ex.calls)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(src, later, later))
	result = d.Run(context.Background(), []string{"time"}, io.Discard)
	assert.Equal(t, 1, result.Converted)
	assert.Equal(t, 2, ex.calls)
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name    string
		ex      *fakeExtractor
		cfg     func(*types.BatchConfig)
		wantMsg string
	}{
		{
			name:    "extractor error",
			ex:      &fakeExtractor{err: errors.New("exit status 1")},
			wantMsg: "extracting declarations: exit status 1",
		},
		{
			name:    "extractor output not JSON",
			ex:      &fakeExtractor{out: map[string]string{"x": "Status: nothing"}},
			wantMsg: "parsing input",
		},
		{
			name: "strict malformed declaration",
			ex:   &fakeExtractor{out: map[string]string{"x": `[{"type":"function"}]`}},
			cfg: func(c *types.BatchConfig) {
				c.Convert.Strict = true
			},
			wantMsg: "missing name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			writeHeader(t, cfg.IncludeDir, "x", "x")
			ledger := newMemLedger()

			var log bytes.Buffer
			result := NewDriver(cfg, tt.ex, ledger, quietLogger).Run(context.Background(), []string{"x"}, &log)

			assert.Equal(t, Result{Failed: 1}, result)
			assert.True(t, result.HasFailures())
			assert.Contains(t, log.String(), tt.wantMsg)
			assert.NoFileExists(t, filepath.Join(cfg.DestDir, "x.pxd"))
			assert.Equal(t, types.ConversionFailed, ledger.entries["x"].Status)
		})
	}
}

func TestRunPartial(t *testing.T) {
	cfg := testConfig(t)
	writeHeader(t, cfg.IncludeDir, "math", "m")
	ex := &fakeExtractor{out: map[string]string{"m": `[
		{"type":"macro","name":"M_PI","value":"3.14159"},
		{"type":"macro","name":"FP_NAN","value":"0"}
	]`}}
	ledger := newMemLedger()

	var log bytes.Buffer
	result := NewDriver(cfg, ex, ledger, quietLogger).Run(context.Background(), []string{"math"}, &log)

	assert.Equal(t, 1, result.Converted)
	assert.Contains(t, log.String(), "converted: math (1 declarations, 1 skipped)")
	assert.Equal(t, types.ConversionPartial, ledger.entries["math"].Status)
	assert.Equal(t, 1, ledger.entries["math"].Skipped)
}

func TestRunConcurrent(t *testing.T) {
	cfg := testConfig(t)
	cfg.Jobs = 4
	headers := []string{"aio", "dirent", "fcntl", "glob", "poll", "pwd", "regex", "sched"}
	for _, h := range headers {
		writeHeader(t, cfg.IncludeDir, h, h)
	}
	ledger := newMemLedger()
	ex := &fakeExtractor{}

	var log bytes.Buffer
	result := NewDriver(cfg, ex, ledger, quietLogger).Run(context.Background(), append(headers, "absent"), &log)

	assert.Equal(t, Result{Converted: len(headers), Skipped: 1}, result)
	assert.Equal(t, len(headers), ex.calls)
	for _, h := range headers {
		assert.FileExists(t, filepath.Join(cfg.DestDir, h+".pxd"))
		assert.Contains(t, log.String(), "converted: "+h+" (1 declarations)\n")
	}

	runs := map[string]bool{}
	for _, c := range ledger.entries {
		runs[c.RunID] = true
	}
	assert.Len(t, runs, 1)
	assert.Equal(t, len(headers)+3, strings.Count(log.String(), "\n"))
}

func TestRunCanceled(t *testing.T) {
	cfg := testConfig(t)
	writeHeader(t, cfg.IncludeDir, "a", "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewDriver(cfg, &fakeExtractor{}, nil, quietLogger).Run(ctx, []string{"a"}, io.Discard)
	assert.Equal(t, Result{Failed: 1}, result)
}

func TestRunDefaultsToPOSIXHeaders(t *testing.T) {
	cfg := testConfig(t)
	writeHeader(t, cfg.IncludeDir, "unistd", "u")

	result := NewDriver(cfg, &fakeExtractor{}, nil, quietLogger).Run(context.Background(), nil, io.Discard)
	assert.Equal(t, 1, result.Converted)
	assert.Equal(t, len(POSIXHeaders)-1, result.Skipped)
	assert.FileExists(t, filepath.Join(cfg.DestDir, "unistd.pxd"))
}

func TestLoadHeaders(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{name: "sequence", content: "- stdio\n- sys/stat.h\n", want: []string{"stdio", "sys/stat"}},
		{name: "mapping", content: "headers:\n  - zlib.h\n  - ' png '\n", want: []string{"zlib", "png"}},
		{name: "empty", content: "headers: []\n", wantErr: true},
		{name: "not yaml", content: "{{{", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			got, err := LoadHeaders(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := LoadHeaders(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}

func TestPOSIXHeaders(t *testing.T) {
	assert.Len(t, POSIXHeaders, 82)
	assert.Contains(t, POSIXHeaders, "sys/stat")
	assert.Contains(t, POSIXHeaders, "wordexp")
}
