package cmd

import (
	"fmt"

	"github.com/theirongolddev/burnline/internal/cli"

	"github.com/spf13/cobra"
)

var contractsCmd = &cobra.Command{
	Use:   "contracts [paths...]",
	Short: "Per-contract progress and trajectory",
	RunE:  runContracts,
}

func init() {
	rootCmd.AddCommand(contractsCmd)
}

func runContracts(cmd *cobra.Command, args []string) error {
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

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("CONTRACTS  %d", len(res.Trajectories))))
	fmt.Println()

	rows := make([][]string, 0, len(res.Trajectories))
	for _, t := range res.Trajectories {
		_, _, recs, _ := res.Contract(t.ContractID)
		cur, ok := currentRow(recs)
		if !ok {
			rows = append(rows, []string{
				t.ContractID, cli.NotAvailable, "", "", "", "", "", "",
				cli.Muted(cli.NotAvailable), t.Conditions.String(),
			})
			continue
		}

		flags := cur.Conditions | t.Conditions
		rows = append(rows, []string{
			t.ContractID,
			cli.FormatDate(cur.SnapshotDate),
			cli.FormatPercent(cur.PctTime),
			cli.FormatPercent(cur.PctComplete),
			cli.FormatMoney(cur.Budget, data.cfg.Display.Currency),
			cli.FormatSlope(t.Slope),
			cli.FormatAngle(t.Angle),
			cli.FormatPercent(t.Prediction),
			cli.Status(cur.Overdue, cur.PctTime, cur.PctComplete),
			flags.String(),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Contract", "Snapshot", "Time", "Complete", "Budget", "Slope", "Angle", "Predicted", "Status", "Flags"},
		Rows:     rows,
		LeftCols: 2,
	}))

	printExcluded(res.Excluded)
	return nil
}
