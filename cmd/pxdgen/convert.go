// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pxdgen/internal/container"
	"github.com/pdiddy/pxdgen/internal/ctypesgen"
	"github.com/pdiddy/pxdgen/internal/pxd"
	"github.com/pdiddy/pxdgen/pkg/types"
)

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := newLogger(cmd)

	inPath, outPath := "-", "-"
	if len(args) > 0 {
		inPath = args[0]
	}
	if len(args) > 1 {
		outPath = args[1]
	}

	data, err := readInput(cmd, inPath)
	if err != nil {
		return err
	}

	inputType := types.InputType(viper.GetString("type"))
	switch inputType {
	case types.InputAuto:
		inputType = pxd.DetectInputType(stdName(inPath), data)
	case types.InputJSON, types.InputHeader:
	default:
		return fmt.Errorf("unknown input type %q: want auto, json, or h", inputType)
	}

	if inputType == types.InputHeader {
		ex, err := newExtractor(ctx, extractorConfig(cmd))
		if err != nil {
			return err
		}
		logger.Debug("running ctypesgen", "input", inPath)
		if data, err = ex.Extract(ctx, data); err != nil {
			return fmt.Errorf("extracting declarations from %s: %w", inPath, err)
		}
	}

	cfg := convertConfig()
	cfg.ImportFrom = viper.GetString("from")
	if cfg.ImportFrom == "" {
		cfg.ImportFrom = pxd.DefaultImportFrom(stdName(inPath))
	}

	var out bytes.Buffer
	stats, err := pxd.ConvertBytes(data, &out, cfg, logger)
	if err != nil {
		return err
	}
	logger.Debug("conversion finished",
		"emitted", stats.Emitted, "skipped", stats.Skipped, "unsupported", stats.Unsupported,
		"malformed", stats.Malformed, "unknown", stats.Unknown, "bitfields_dropped", stats.BitfieldsDropped)

	return writeOutput(cmd, outPath, out.Bytes(), viper.GetBool("append"))
}

// newExtractor runs ctypesgen on the host, or in a container when an image
// is configured.
func newExtractor(ctx context.Context, cfg types.ExtractorConfig) (ctypesgen.Extractor, error) {
	if cfg.Image == "" {
		return ctypesgen.NewRunner(cfg), nil
	}
	rt, err := container.DetectRuntime(ctx)
	if err != nil {
		return nil, err
	}
	return ctypesgen.NewContainerRunner(ctx, rt, cfg)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return data, nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte, appendMode bool) error {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if appendMode {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("opening output: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// stdName maps "-" to the empty path used for standard streams.
func stdName(path string) string {
	if path == "-" {
		return ""
	}
	return path
}
