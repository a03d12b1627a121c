package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCostCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cost",
		Short: "Show accumulated generation spend per episode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			summaries, err := store.TotalCosts(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No recorded costs.")
				return nil
			}

			var totalIn, totalOut int64
			var totalCost float64
			rows := make([][]string, 0, len(summaries))
			for _, summary := range summaries {
				rows = append(rows, []string{
					summary.EpisodeID,
					fmt.Sprintf("%d", summary.InputTokens),
					fmt.Sprintf("%d", summary.OutputTokens),
					fmt.Sprintf("$%.4f", summary.CostUSD),
				})
				totalIn += summary.InputTokens
				totalOut += summary.OutputTokens
				totalCost += summary.CostUSD
			}
			rows = append(rows, []string{
				"TOTAL",
				fmt.Sprintf("%d", totalIn),
				fmt.Sprintf("%d", totalOut),
				fmt.Sprintf("$%.4f", totalCost),
			})

			fmt.Fprintln(out, renderTable(
				[]string{"EPISODE", "INPUT TOKENS", "OUTPUT TOKENS", "COST"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}
