// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pxdgen/internal/ledger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the headers recorded in the conversion ledger",
	Long: `Status lists every header the batch command has converted, with its
outcome, declaration counts, and conversion time. --format yaml or json
exports the ledger instead of printing a table.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	l, err := ledger.Open(viper.GetString("ledger"))
	if err != nil {
		return err
	}
	defer l.Close()

	w := cmd.OutOrStdout()
	switch format := viper.GetString("format"); format {
	case "yaml":
		return l.ExportYAML(ctx, w)
	case "json":
		return l.ExportJSON(ctx, w)
	case "table":
	default:
		return fmt.Errorf("unknown format %q: want table, yaml, or json", format)
	}

	list, err := l.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(w, "No conversions recorded.")
		return nil
	}

	var data [][]string
	for _, c := range list {
		data = append(data, []string{
			c.Header,
			string(c.Status),
			strconv.Itoa(c.Declarations),
			strconv.Itoa(c.Skipped),
			c.ConvertedAt.Local().Format("2006-01-02 15:04"),
			shortRun(c.RunID),
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"HEADER", "STATUS", "DECLARATIONS", "SKIPPED", "CONVERTED", "RUN"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
	return nil
}

// shortRun abbreviates a run ID the way git abbreviates hashes.
func shortRun(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	statusCmd.Flags().String("ledger", defaultLedger, "SQLite ledger of conversions")
	statusCmd.Flags().String("format", "table", "output format: table, yaml, or json")

	rootCmd.AddCommand(statusCmd)
}
