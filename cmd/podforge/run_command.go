package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"podforge/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		episodeFlag string
		latestFlag  bool
		forceFlag   bool
		sinceFlag   string
		maxFlag     int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process pending episodes through the pipeline",
		Long: `Process episodes through download, transcribe, chunk, and generate.

Without flags all pending episodes are processed oldest first. --latest
detects new episodes and processes only the newest pending one. --episode
processes a single episode by id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var since *time.Time
			if sinceFlag != "" {
				parsed, err := time.Parse("2006-01-02", sinceFlag)
				if err != nil {
					return fmt.Errorf("parse --since %q (want YYYY-MM-DD): %w", sinceFlag, err)
				}
				since = &parsed
			}
			if latestFlag && episodeFlag != "" {
				return fmt.Errorf("--latest and --episode are mutually exclusive")
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

			runner, err := ctx.newRunner(store)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var reports []*pipeline.Report
			switch {
			case episodeFlag != "":
				report, err := runner.RunEpisode(cmd.Context(), episodeFlag, forceFlag)
				if err != nil {
					return err
				}
				reports = append(reports, report)
			case latestFlag:
				report, err := runner.RunLatest(cmd.Context())
				if err != nil {
					return err
				}
				if report == nil {
					fmt.Fprintln(out, "No pending episodes.")
					return nil
				}
				reports = append(reports, report)
			default:
				reports, err = runner.RunPending(cmd.Context(), since, maxFlag)
				if err != nil {
					return err
				}
				if len(reports) == 0 {
					fmt.Fprintln(out, "No pending episodes.")
					return nil
				}
			}

			failed := 0
			for _, report := range reports {
				if _, err := pipeline.WriteReport(report, cfg.Paths.ReportsDir); err != nil {
					return err
				}
				printReport(out, report)
				if !report.Success {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d episode(s) failed", failed, len(reports))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&episodeFlag, "episode", "", "Process a single episode by id")
	cmd.Flags().BoolVar(&latestFlag, "latest", false, "Detect and process only the newest pending episode")
	cmd.Flags().BoolVar(&forceFlag, "force", false, "Re-run stages even when already completed")
	cmd.Flags().StringVar(&sinceFlag, "since", "", "Only process episodes published on or after this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&maxFlag, "max", 0, "Limit the number of episodes processed")

	return cmd
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <episode>",
		Short: "Retry a failed episode from its last reached stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
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

			runner, err := ctx.newRunner(store)
			if err != nil {
				return err
			}

			report, err := runner.Retry(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if _, err := pipeline.WriteReport(report, cfg.Paths.ReportsDir); err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			if !report.Success {
				return fmt.Errorf("retry failed: %s", report.Error)
			}
			return nil
		},
	}
}

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func printReport(out io.Writer, report *pipeline.Report) {
	verdict := "OK"
	color := ansiGreen
	if !report.Success {
		verdict = "FAILED"
		color = ansiRed
	}
	if isTerminal(out) {
		verdict = color + verdict + ansiReset
	}
	fmt.Fprintf(out, "%s %s (%s)\n", verdict, report.EpisodeID, report.Title)
	for _, stage := range report.Stages {
		line := fmt.Sprintf("  %-10s %-8s", stage.Stage, stage.Status)
		if stage.Detail != "" {
			line += " " + stage.Detail
		}
		if stage.Error != "" {
			line += " " + stage.Error
		}
		fmt.Fprintln(out, line)
	}
	if report.TotalCostUSD > 0 {
		fmt.Fprintf(out, "  total cost: $%.4f\n", report.TotalCostUSD)
	}
}
