package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"podforge/internal/episode"
	"podforge/internal/pipeline"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [episode]",
		Short: "Show episode pipeline states",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				return printEpisodeStatus(cmd, store, args[0], cfg.Paths.ReportsDir)
			}
			return printStatusTable(cmd, store)
		},
	}
}

func printStatusTable(cmd *cobra.Command, store *episode.Store) error {
	episodes, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(episodes) == 0 {
		fmt.Fprintln(out, "No episodes. Run 'podforge detect' first.")
		return nil
	}

	rows := make([][]string, 0, len(episodes))
	for _, ep := range episodes {
		published := "-"
		if ep.PublishedAt != nil {
			published = ep.PublishedAt.Format("2006-01-02")
		}
		note := ep.ErrorMessage
		if note == "" && ep.RetryCount > 0 {
			note = fmt.Sprintf("%d retries", ep.RetryCount)
		}
		rows = append(rows, []string{
			ep.ID,
			truncate(ep.Title, 48),
			string(ep.Status),
			published,
			truncate(note, 40),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "TITLE", "STATUS", "PUBLISHED", "NOTE"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	))
	return nil
}

func printEpisodeStatus(cmd *cobra.Command, store *episode.Store, episodeID, reportsDir string) error {
	ep, err := store.GetByID(cmd.Context(), episodeID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Episode:    %s\n", ep.ID)
	fmt.Fprintf(out, "Title:      %s\n", ep.Title)
	fmt.Fprintf(out, "Status:     %s\n", ep.Status)
	if ep.PublishedAt != nil {
		fmt.Fprintf(out, "Published:  %s\n", ep.PublishedAt.Format("2006-01-02"))
	}
	if ep.AudioPath != "" {
		fmt.Fprintf(out, "Audio:      %s\n", ep.AudioPath)
	}
	if ep.TranscriptPath != "" {
		fmt.Fprintf(out, "Transcript: %s\n", ep.TranscriptPath)
	}
	if ep.OutputDir != "" {
		fmt.Fprintf(out, "Outputs:    %s\n", ep.OutputDir)
	}
	if ep.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:      %s (retry %d)\n", ep.ErrorMessage, ep.RetryCount)
	}
	if cost, err := store.EpisodeCost(cmd.Context(), ep.ID); err == nil && cost.CostUSD > 0 {
		fmt.Fprintf(out, "Spend:      $%.4f (%d in / %d out tokens)\n",
			cost.CostUSD, cost.InputTokens, cost.OutputTokens)
	}
	if latest, err := pipeline.ReadLatestReport(reportsDir, ep.ID); err == nil {
		verdict := "OK"
		if !latest.Success {
			verdict = "FAILED"
		}
		fmt.Fprintf(out, "Last run:   %s (%s, $%.4f)\n", verdict,
			latest.StartedAt.Format("2006-01-02 15:04:05"), latest.TotalCostUSD)
	}

	runs, err := store.RunsForEpisode(cmd.Context(), ep.ID)
	if err != nil {
		return err
	}
	if len(runs) > 0 {
		fmt.Fprintln(out)
		printRunsTable(out, runs)
	}

	artifacts, err := store.ArtifactsForEpisode(cmd.Context(), ep.ID)
	if err != nil {
		return err
	}
	if len(artifacts) > 0 {
		fmt.Fprintln(out)
		printArtifactsTable(out, artifacts)
	}
	return nil
}

func printRunsTable(out io.Writer, runs []*episode.PipelineRun) {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		duration := "-"
		if run.FinishedAt != nil {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		rows = append(rows, []string{
			run.Stage,
			string(run.Status),
			run.StartedAt.Format("2006-01-02 15:04:05"),
			duration,
			fmt.Sprintf("$%.4f", run.CostUSD),
			truncate(run.ErrorMessage, 40),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"STAGE", "STATUS", "STARTED", "DURATION", "COST", "ERROR"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
}

func printArtifactsTable(out io.Writer, artifacts []*episode.ContentArtifact) {
	rows := make([][]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		rows = append(rows, []string{
			artifact.ArtifactType,
			artifact.Path,
			fmt.Sprintf("%d/%d", artifact.InputTokens, artifact.OutputTokens),
			fmt.Sprintf("$%.4f", artifact.CostUSD),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ARTIFACT", "PATH", "TOKENS IN/OUT", "COST"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
	))
}
