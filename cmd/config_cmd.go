// Package cmd implements the burnline CLI commands.
package cmd

import (
	"fmt"

	"github.com/theirongolddev/burnline/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func configFilePath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.ConfigPath()
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path := configFilePath()
	fmt.Printf("  Config file: %s\n", path)
	if config.Exists(path) {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Input]")
	fmt.Printf("    Date layout: %s\n", cfg.Input.DateLayout)
	if cfg.Input.Delimiter == "" {
		fmt.Println("    Delimiter:   none (hierarchy disabled)")
	} else {
		fmt.Printf("    Delimiter:   %q\n", cfg.Input.Delimiter)
	}
	fmt.Println("    Columns:")
	for _, f := range cfg.Input.Columns.Fields() {
		fmt.Printf("      %-14s %s\n", f[0], f[1])
	}
	fmt.Println()

	fmt.Println("  [Analysis]")
	fmt.Printf("    Aggregate children: %v\n", cfg.Analysis.Aggregate)
	fmt.Printf("    Resample points:    %d\n", cfg.Analysis.ResamplePoints)
	fmt.Printf("    Thickness range:    %g .. %g\n", cfg.Analysis.ThicknessMin, cfg.Analysis.ThicknessMax)
	fmt.Println()

	fmt.Println("  [Display]")
	fmt.Printf("    Currency: %s\n", cfg.Display.Currency)
	fmt.Println()

	fmt.Println("  Run `burnline setup` to reconfigure.")
	return nil
}
