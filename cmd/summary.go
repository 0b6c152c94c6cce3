package cmd

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/burnline/internal/cli"
	"github.com/theirongolddev/burnline/internal/model"
	"github.com/theirongolddev/burnline/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [paths...]",
	Short: "Portfolio overview of the current snapshots",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

// portfolioStats is the summary over each contract's current snapshot.
type portfolioStats struct {
	budget, work                      decimal.Decimal
	onTrack, behind, overdue, unknown int
	predictions                       []float64
}

func summarize(res *pipeline.Result) portfolioStats {
	var st portfolioStats
	for _, t := range res.Trajectories {
		_, _, rows, _ := res.Contract(t.ContractID)
		cur, ok := currentRow(rows)
		if !ok {
			st.unknown++
			continue
		}
		if cur.Contract.IsParent && cur.Budget.Valid && cur.Work.Valid {
			st.budget = st.budget.Add(cur.Budget.Decimal)
			st.work = st.work.Add(cur.Work.Decimal)
		}
		switch {
		case cur.Overdue:
			st.overdue++
		case math.IsNaN(cur.PctTime) || math.IsNaN(cur.PctComplete):
			st.unknown++
		case cur.PctComplete < cur.PctTime:
			st.behind++
		default:
			st.onTrack++
		}
		if t.Defined() {
			st.predictions = append(st.predictions, t.Prediction)
		}
	}
	return st
}

// currentRow returns the months_ago 0 record of a contract.
func currentRow(rows []model.Record) (model.Record, bool) {
	for _, r := range rows {
		if r.MonthsAgo == 0 {
			return r, true
		}
	}
	return model.Record{}, false
}

func runSummary(cmd *cobra.Command, args []string) error {
	data, err := loadData(cmd, args)
	if err != nil {
		return err
	}
	res := data.result

	if len(res.Trajectories) == 0 {
		fmt.Println("\n  No contracts found.")
		printExcluded(res.Excluded)
		return nil
	}

	st := summarize(res)
	currency := data.cfg.Display.Currency

	completion := math.NaN()
	if !st.budget.IsZero() {
		completion, _ = st.work.Mul(decimal.NewFromInt(100)).Div(st.budget).Float64()
	}
	meanPrediction := math.NaN()
	if len(st.predictions) > 0 {
		sum := 0.0
		for _, p := range st.predictions {
			sum += p
		}
		meanPrediction = sum / float64(len(st.predictions))
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("CONTRACT PORTFOLIO  %d contracts", len(res.Trajectories))))
	fmt.Println()

	rows := [][]string{
		{"Files", cli.FormatNumber(int64(data.load.ParsedFiles))},
		{"Snapshots", cli.FormatNumber(int64(len(res.Records)))},
		{"Contracts", cli.FormatNumber(int64(len(res.Trajectories)))},
		{"Excluded", cli.FormatNumber(int64(len(res.Excluded)))},
		cli.Separator,
		{"Budget (current)", cli.FormatMoney(decimal.NewNullDecimal(st.budget), currency)},
		{"Work done", cli.FormatMoney(decimal.NewNullDecimal(st.work), currency)},
		{"Completion", cli.FormatPercent(completion)},
		cli.Separator,
		{"On track", cli.FormatNumber(int64(st.onTrack))},
		{"Behind", cli.FormatNumber(int64(st.behind))},
		{"Overdue", cli.FormatNumber(int64(st.overdue))},
		{"Undefined", cli.FormatNumber(int64(st.unknown))},
		cli.Separator,
		{"Mean prediction", cli.FormatPercent(meanPrediction)},
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	printExcluded(res.Excluded)
	return nil
}
