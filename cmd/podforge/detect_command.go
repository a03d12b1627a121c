package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"podforge/internal/feed"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Fetch the configured feed and register new episodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			lock, err := ctx.acquireLock()
			if err != nil {
				return err
			}
			defer lock.Unlock()

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := feed.Detect(cmd.Context(), store, cfg, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Found %d episodes in feed: %d new, %d total in database\n",
				result.Found, result.New, result.Total)
			return nil
		},
	}
}
