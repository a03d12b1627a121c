package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"podforge/internal/pipeline"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var forceFlag bool

	cmd := &cobra.Command{
		Use:   "plan <episode>",
		Short: "Show what each pipeline stage would do, without running anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ep, err := store.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Plan for %s (status: %s):\n", ep.ID, ep.Status)
			for _, entry := range pipeline.ResolvePlan(ep.Status, forceFlag) {
				fmt.Fprintf(out, "  %-10s %-8s %s\n", entry.Stage, entry.Decision, entry.Reason)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&forceFlag, "force", false, "Resolve the plan as if --force were given to run")
	return cmd
}
