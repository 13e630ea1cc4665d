// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pxdgen CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pxdgen/internal/logutil"
	"github.com/pdiddy/pxdgen/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd converts one declaration document; subcommands cover batch runs
// and the conversion ledger.
var rootCmd = &cobra.Command{
	Use:   "pxdgen [input] [output]",
	Short: "Convert ctypesgen JSON declarations into a Cython .pxd file",
	Long: `pxdgen reads a JSON list of C declarations produced by ctypesgen and
writes the matching Cython declarations as a single "cdef extern from" block.

Input and output default to stdin and stdout; "-" names them explicitly.
A C header (.h, or --type h) is first run through ctypesgen. The result is a
starting point for manual editing, not a validated binding.`,
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: runConvert,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./pxdgen.yaml or ~/.config/pxdgen/pxdgen.yaml)")
	pf.Bool("gil", false, "keep the GIL; omit nogil from the extern block")
	pf.Int("indent-level", 0, "indent all output by this many levels")
	pf.Bool("no-includes", false, "omit the libc.stddef and libc.stdint cimports")
	pf.Bool("strict", false, "fail on malformed declarations instead of skipping them")
	pf.Bool("annotate", false, "write a comment for every skipped declaration")
	pf.StringArrayP("ctypesgen-arg", "x", nil, "extra argument for ctypesgen (repeatable)")
	pf.Duration("timeout", 30*time.Second, "ctypesgen run timeout")
	pf.String("image", "", "run ctypesgen in this container image (docker or podman)")
	pf.BoolP("quiet", "q", false, "hide ctypesgen output and warnings")
	pf.BoolP("verbose", "v", false, "log debug diagnostics")

	f := rootCmd.Flags()
	f.StringP("from", "f", "", `header named in "cdef extern from" (default: input name with .h, or * for stdin)`)
	f.StringP("type", "t", string(types.InputAuto), "input type: auto, json, or h")
	f.BoolP("append", "a", false, "append to the output file instead of replacing it")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pxdgen")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pxdgen"))
		}
	}

	viper.SetEnvPrefix("PXDGEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose, _ := rootCmd.PersistentFlags().GetBool("verbose"); verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// newLogger returns the diagnostics logger for cmd.
func newLogger(cmd *cobra.Command) *slog.Logger {
	return logutil.NewLogger(cmd.ErrOrStderr(), logutil.Level(viper.GetBool("verbose"), viper.GetBool("quiet")))
}

// convertConfig reads the rendering options shared by every command.
func convertConfig() types.ConvertConfig {
	return types.ConvertConfig{
		IndentLevel: viper.GetInt("indent-level"),
		GIL:         viper.GetBool("gil"),
		NoIncludes:  viper.GetBool("no-includes"),
		Strict:      viper.GetBool("strict"),
		Annotate:    viper.GetBool("annotate"),
	}
}

// extractorConfig reads the ctypesgen options. Repeated -x values are read
// from the flag itself so arguments containing commas survive.
func extractorConfig(cmd *cobra.Command) types.ExtractorConfig {
	args := viper.GetStringSlice("ctypesgen-arg")
	if f := cmd.Flags().Lookup("ctypesgen-arg"); f != nil && f.Changed {
		args, _ = cmd.Flags().GetStringArray("ctypesgen-arg")
	}
	return types.ExtractorConfig{
		Binary:  viper.GetString("ctypesgen"),
		Args:    args,
		Timeout: viper.GetDuration("timeout"),
		Quiet:   viper.GetBool("quiet"),
		Image:   viper.GetString("image"),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pxdgen:", err)
		os.Exit(1)
	}
}
