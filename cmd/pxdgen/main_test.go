// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with fresh flag and config state.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	viper.Reset()
	resetFlags(rootCmd)
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestConvertStdinToStdout(t *testing.T) {
	out, _, err := execute(t,
		`{"declarations":[{"kind":"function","name":"add","return_type":"int","params":[{"type":"int","name":"a"},{"type":"int","name":"b"}]}]}`,
		"--no-includes")
	require.NoError(t, err)
	assert.Equal(t, "cdef extern from * nogil:\n    int add(int a, int b)\n\n", out)
}

func TestConvertFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "demo.json")
	outPath := filepath.Join(dir, "demo.pxd")
	require.NoError(t, os.WriteFile(in, []byte(`[{"kind":"typedef","name":"myint","type":"int"}]`), 0o644))

	_, _, err := execute(t, "", "--no-includes", "--gil", in, outPath)
	require.NoError(t, err)
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "cdef extern from \"demo.h\":\n    ctypedef int myint\n\n", string(data))

	_, _, err = execute(t, "", "--no-includes", "--append", "--from", "<demo.h>", in, outPath)
	require.NoError(t, err)
	data, err = os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "ctypedef int myint"))
	assert.Contains(t, string(data), "cdef extern from <demo.h> nogil:")
}

func TestConvertMalformedInput(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.pxd")

	out, _, err := execute(t, `{"declarations":[{"kind":`, "-t", "json", "-", outPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing input")
	assert.Empty(t, out)
	assert.NoFileExists(t, outPath)
}

func TestConvertUnknownType(t *testing.T) {
	_, _, err := execute(t, `[]`, "--type", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown input type")
}

func TestConvertConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "pxdgen.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("no-includes: true\nindent-level: 1\n"), 0o644))

	out, _, err := execute(t, `[]`, "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "    cdef extern from * nogil:\n        pass\n", out)
}

func TestConvertWarningsOnStderr(t *testing.T) {
	out, stderr, err := execute(t, `[{"kind":"function","return_type":"int"}]`, "--no-includes")
	require.NoError(t, err)
	assert.Equal(t, "cdef extern from * nogil:\n    pass\n", out)
	assert.Contains(t, stderr, "skipping declaration")

	_, stderr, err = execute(t, `[{"kind":"function","return_type":"int"}]`, "--no-includes", "-q")
	require.NoError(t, err)
	assert.Empty(t, stderr)
}

func TestStatusEmptyLedger(t *testing.T) {
	ledgerPath := filepath.Join(t.TempDir(), "ledger.db")

	out, _, err := execute(t, "", "status", "--ledger", ledgerPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No conversions recorded.")

	out, _, err = execute(t, "", "status", "--ledger", ledgerPath, "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	_, _, err = execute(t, "", "status", "--ledger", ledgerPath, "--format", "csv")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "pxdgen dev\n", out)
}
