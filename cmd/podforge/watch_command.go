package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"podforge/internal/config"
	"podforge/internal/episode"
	"podforge/internal/feed"
	"podforge/internal/jobs"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var (
		intervalFlag time.Duration
		onceFlag     bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the feed and process new episodes as background jobs",
		Long: `Poll the configured feed on an interval and submit every pending
episode to the job manager. Each episode runs as its own job with a
per-episode log under the log directory. --once performs a single cycle
and exits, which suits cron-style scheduling.`,
		Args: cobra.NoArgs,
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

			runner, err := ctx.newRunner(store)
			if err != nil {
				return err
			}
			manager, err := jobs.NewManager(runner, cfg.Paths.LogDir, logger)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := manager.Shutdown(shutdownCtx); err != nil {
					logger.Warn("job manager shutdown", "error", err)
				}
			}()

			if onceFlag {
				failed, err := watchCycle(cmd, store, manager, cfg, logger)
				if err != nil {
					return err
				}
				if failed > 0 {
					return fmt.Errorf("%d job(s) failed", failed)
				}
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Watching feed every %s. Press Ctrl-C to stop.\n", intervalFlag)
			ticker := time.NewTicker(intervalFlag)
			defer ticker.Stop()
			for {
				if _, err := watchCycle(cmd, store, manager, cfg, logger); err != nil {
					return err
				}
				select {
				case <-cmd.Context().Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}

	cmd.Flags().DurationVar(&intervalFlag, "interval", 5*time.Minute, "How often to poll the feed")
	cmd.Flags().BoolVar(&onceFlag, "once", false, "Run a single detect-and-process cycle and exit")

	return cmd
}

// watchCycle detects new episodes, submits every pending one to the job
// manager, and waits for the submitted jobs to finish. Returns the number of
// failed jobs.
func watchCycle(cmd *cobra.Command, store *episode.Store, manager *jobs.Manager, cfg *config.Config, logger *slog.Logger) (int, error) {
	out := cmd.OutOrStdout()

	result, err := feed.Detect(cmd.Context(), store, cfg, logger)
	if err != nil {
		// A transient feed outage should not kill the watcher.
		logger.Warn("feed detection failed", "error", err)
	} else {
		fmt.Fprintf(out, "Found %d episodes in feed: %d new, %d total in database\n",
			result.Found, result.New, result.Total)
	}

	pending, err := store.ListPending(cmd.Context(), nil)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		fmt.Fprintln(out, "No pending episodes.")
		return 0, nil
	}

	submitted := make([]jobs.Job, 0, len(pending))
	for _, ep := range pending {
		if manager.ActiveForEpisode(ep.ID) != nil {
			continue
		}
		job, err := manager.Submit(jobs.ActionRun, ep.ID, false)
		if err != nil {
			logger.Warn("job submit failed", "episode_id", ep.ID, "error", err)
			continue
		}
		submitted = append(submitted, job)
	}

	failed := 0
	for _, job := range submitted {
		done, err := waitForJob(cmd.Context(), manager, job.ID)
		if err != nil {
			return failed, err
		}
		verdict := "OK"
		if done.State == jobs.StateError {
			verdict = "FAILED"
			failed++
		}
		line := fmt.Sprintf("%s %s (job %s)", verdict, done.EpisodeID, done.ID)
		if done.Message != "" {
			line += ": " + done.Message
		}
		fmt.Fprintln(out, line)
	}
	return failed, nil
}

func waitForJob(ctx context.Context, manager *jobs.Manager, jobID string) (jobs.Job, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		job, ok := manager.Get(jobID)
		if !ok {
			return jobs.Job{}, fmt.Errorf("job %s disappeared", jobID)
		}
		if job.State == jobs.StateSuccess || job.State == jobs.StateError {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return jobs.Job{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
