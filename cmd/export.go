package cmd

import (
	"fmt"

	"github.com/theirongolddev/burnline/internal/export"

	"github.com/spf13/cobra"
)

var (
	flagFormat string
	flagOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export [paths...]",
	Short: "Write records, trajectories and curves for plotting",
	Long: "Write records.<ext>, trajectories.<ext> and curves.<ext> to the output directory.\n" +
		"Undefined values are written as empty cells (csv) or null (json, yaml).",
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagFormat, "format", "f", "csv", "Output format: csv, json or yaml")
	exportCmd.Flags().StringVarP(&flagOut, "out", "o", "burnline-out", "Output directory")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(flagFormat)
	if err != nil {
		return err
	}

	data, err := loadData(cmd, args)
	if err != nil {
		return err
	}

	paths, err := export.WriteAll(flagOut, format, data.result)
	if err != nil {
		return err
	}

	fmt.Println()
	for _, p := range paths {
		fmt.Printf("  Wrote %s\n", p)
	}
	printExcluded(data.result.Excluded)
	return nil
}
