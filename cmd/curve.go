package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/burnline/internal/cli"
	"github.com/theirongolddev/burnline/internal/model"
	"github.com/theirongolddev/burnline/internal/pipeline"

	"github.com/spf13/cobra"
)

var curveCmd = &cobra.Command{
	Use:   "curve <contract> [paths...]",
	Short: "Snapshots, smoothed curve and trajectory of one contract",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCurve,
}

func init() {
	rootCmd.AddCommand(curveCmd)
}

// findContract resolves id exactly, or by a unique case-insensitive substring.
func findContract(res *pipeline.Result, id string) (string, error) {
	if _, _, _, ok := res.Contract(id); ok {
		return id, nil
	}
	matches := pipeline.FilterByContract(res, id).Trajectories
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("contract %q not found", id)
	case 1:
		return matches[0].ContractID, nil
	}
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ContractID
	}
	return "", fmt.Errorf("contract %q is ambiguous: %s", id, strings.Join(ids, ", "))
}

func runCurve(cmd *cobra.Command, args []string) error {
	data, err := loadData(cmd, args[1:])
	if err != nil {
		return err
	}

	id, err := findContract(data.result, args[0])
	if err != nil {
		return err
	}
	traj, curve, rows, _ := data.result.Contract(id)

	fmt.Println()
	fmt.Println(cli.RenderTitle("CONTRACT  " + id))
	fmt.Println()

	snapRows := make([][]string, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		snapRows = append(snapRows, []string{
			fmt.Sprintf("%d", r.MonthsAgo),
			cli.FormatDate(r.SnapshotDate),
			cli.FormatMoney(r.Budget, data.cfg.Display.Currency),
			cli.FormatMoney(r.Work, data.cfg.Display.Currency),
			cli.FormatPercent(r.PctTime),
			cli.FormatPercent(r.PctComplete),
			r.Conditions.String(),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Snapshots",
		Headers:  []string{"Months ago", "Date", "Budget", "Work", "Time", "Complete", "Flags"},
		Rows:     snapRows,
		LeftCols: 2,
	}))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Trajectory",
		Headers: []string{"Metric", "Value"},
		Rows:    trajectoryRows(traj),
	}))
	fmt.Println()

	printCurve(curve)
	return nil
}

func trajectoryRows(t model.Trajectory) [][]string {
	line := t.Line()
	rows := [][]string{
		{"Snapshots", fmt.Sprintf("%d", t.Snapshots)},
		{"Oldest (months ago)", fmt.Sprintf("%d", t.OldestMonthsAgo)},
		{"Start point", fmt.Sprintf("%s / %s", cli.FormatPercent(t.X1), cli.FormatPercent(t.Y1))},
		{"Current point", fmt.Sprintf("%s / %s", cli.FormatPercent(t.X2), cli.FormatPercent(t.Y2))},
		cli.Separator,
		{"Slope", cli.FormatSlope(t.Slope)},
		{"Angle", cli.FormatAngle(t.Angle)},
		{"Predicted at 100% time", cli.FormatPercent(t.Prediction)},
		{"Overlay", fmt.Sprintf("(%s, %s) -> (%s, %s)",
			cli.FormatPercent(line.X1), cli.FormatPercent(line.Y1),
			cli.FormatPercent(line.X2), cli.FormatPercent(line.Y2))},
	}
	if t.Conditions != 0 {
		rows = append(rows, []string{"Flags", t.Conditions.String()})
	}
	return rows
}

func printCurve(c model.Curve) {
	if len(c.Points) == 0 {
		fmt.Println(cli.Muted("  No plottable points."))
		return
	}

	completion := make([]float64, len(c.Points))
	for i, p := range c.Points {
		completion[i] = p.PctComplete
	}
	first, last := c.Points[0], c.Points[len(c.Points)-1]

	kind := "smoothed"
	if !c.Smoothed {
		kind = "raw"
	}
	fmt.Printf("  Completion (%s, %d points)\n", kind, len(c.Points))
	fmt.Printf("  from %s to %s\n", cli.FormatPercent(first.PctComplete), cli.FormatPercent(last.PctComplete))
	fmt.Printf("  %s\n", cli.RenderSparkline(cli.Downsample(completion, 50), 0, 100))
	fmt.Println(cli.Muted(fmt.Sprintf("  time %s .. %s", cli.FormatPercent(first.PctTime), cli.FormatPercent(last.PctTime))))
}
