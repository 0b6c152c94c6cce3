package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/huh"
	"github.com/theirongolddev/burnline/internal/cli"
	"github.com/theirongolddev/burnline/internal/config"
	"github.com/theirongolddev/burnline/internal/source"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup [paths...]",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

var dateLayouts = []struct {
	label  string
	layout string
}{
	{"2024-07-31 (ISO)", "2006-01-02"},
	{"07/31/2024 (US)", "01/02/2006"},
	{"31/07/2024 (EU)", "02/01/2006"},
	{"31.07.2024", "02.01.2006"},
	{"2024/07/31", "2006/01/02"},
}

// setupValues holds the form fields before they are copied into a Config.
type setupValues struct {
	layout    string
	delimiter string
	aggregate bool
	points    string
	currency  string
}

func newSetupForm(v *setupValues) *huh.Form {
	layoutOpts := make([]huh.Option[string], 0, len(dateLayouts))
	for _, l := range dateLayouts {
		layoutOpts = append(layoutOpts, huh.NewOption(l.label, l.layout))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Date format").
				Description("How dates are written in your snapshot files.").
				Options(layoutOpts...).
				Value(&v.layout),
			huh.NewInput().
				Title("Parent/child delimiter").
				Description("Separates a child contract from its parent, e.g. P-100/A. Leave blank to disable.").
				Value(&v.delimiter),
			huh.NewConfirm().
				Title("Fold child contracts into their parent?").
				Value(&v.aggregate),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Resample points per curve").
				Value(&v.points).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n < 2 {
						return errors.New("enter a whole number of at least 2")
					}
					return nil
				}),
			huh.NewInput().
				Title("Currency").
				Description("ISO 4217 code used to display budgets.").
				Value(&v.currency).
				Validate(func(s string) error {
					if money.GetCurrency(strings.ToUpper(strings.TrimSpace(s))) == nil {
						return fmt.Errorf("unknown currency %q", s)
					}
					return nil
				}),
		),
	)
}

func (v setupValues) apply(cfg *config.Config) {
	cfg.Input.DateLayout = v.layout
	cfg.Input.Delimiter = v.delimiter
	cfg.Analysis.Aggregate = v.aggregate
	if n, err := strconv.Atoi(strings.TrimSpace(v.points)); err == nil {
		cfg.Analysis.ResamplePoints = n
	}
	cfg.Display.Currency = strings.ToUpper(strings.TrimSpace(v.currency))
}

func runSetup(_ *cobra.Command, args []string) error {
	path := configFilePath()

	// Load existing config or defaults
	cfg, err := config.LoadFile(path)
	if err != nil {
		cfg = config.DefaultConfig()
	}

	if len(args) == 0 {
		args = []string{"."}
	}
	files, _ := source.ScanPaths(args)

	fmt.Println()
	fmt.Println("  Welcome to burnline!")
	if len(files) > 0 {
		fmt.Printf("  Found %s CSV files in %s\n", cli.FormatNumber(int64(len(files))), strings.Join(args, ", "))
	}
	fmt.Println()

	vals := setupValues{
		layout:    cfg.Input.DateLayout,
		delimiter: cfg.Input.Delimiter,
		aggregate: cfg.Analysis.Aggregate,
		points:    strconv.Itoa(cfg.Analysis.ResamplePoints),
		currency:  cfg.Display.Currency,
	}
	if err := newSetupForm(&vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return err
	}
	vals.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := config.SaveFile(path, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", path)
	fmt.Println("  Run `burnline setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}
