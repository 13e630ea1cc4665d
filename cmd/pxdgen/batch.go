// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pxdgen/internal/batch"
	"github.com/pdiddy/pxdgen/internal/ledger"
	"github.com/pdiddy/pxdgen/pkg/types"
)

const defaultLedger = "pxdgen.db"

var batchCmd = &cobra.Command{
	Use:   "batch [headers...]",
	Short: "Convert a set of system headers into a tree of .pxd files",
	Long: `Batch runs ctypesgen on each header under --include-dir and writes
<dest-dir>/<header>.pxd. Headers are named without the .h suffix, for example
"stdio" or "sys/stat". Without arguments or --headers-file the POSIX.1-2008
standard headers are converted.

Missing headers are skipped. Existing outputs are kept unless --force is set
or the ledger shows that the header changed since it was converted.
--jobs runs several ctypesgen processes at once.`,
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	headers := args
	if path := viper.GetString("headers-file"); len(headers) == 0 && path != "" {
		var err error
		if headers, err = batch.LoadHeaders(path); err != nil {
			return err
		}
	}

	cfg := types.BatchConfig{
		IncludeDir: viper.GetString("include-dir"),
		DestDir:    viper.GetString("dest-dir"),
		LedgerPath: viper.GetString("ledger"),
		Force:      viper.GetBool("force"),
		Jobs:       viper.GetInt("jobs"),
		Convert:    convertConfig(),
		Extractor:  extractorConfig(cmd),
	}

	ex, err := newExtractor(ctx, cfg.Extractor)
	if err != nil {
		return err
	}

	var store batch.Ledger
	if cfg.LedgerPath != "" {
		l, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			return err
		}
		defer l.Close()
		store = l
	}

	result := batch.NewDriver(cfg, ex, store, newLogger(cmd)).Run(ctx, headers, cmd.OutOrStdout())
	if result.HasFailures() {
		return fmt.Errorf("%d header(s) failed conversion", result.Failed)
	}
	return nil
}

func init() {
	batchCmd.Flags().String("include-dir", "/usr/include", "directory the headers are read from")
	batchCmd.Flags().String("dest-dir", "converted_headers", "directory the .pxd files are written to")
	batchCmd.Flags().String("headers-file", "", "YAML file listing the headers to convert")
	batchCmd.Flags().String("ledger", defaultLedger, `SQLite ledger of conversions ("" disables it)`)
	batchCmd.Flags().Bool("force", false, "reconvert headers whose output already exists")
	batchCmd.Flags().IntP("jobs", "j", 1, "number of headers converted concurrently")

	rootCmd.AddCommand(batchCmd)
}
