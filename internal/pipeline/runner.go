package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"podforge/internal/config"
	"podforge/internal/episode"
	"podforge/internal/feed"
	"podforge/internal/generate"
	"podforge/internal/logging"
	"podforge/internal/services"
	"podforge/internal/services/anthropic"
	"podforge/internal/services/whisper"
	"podforge/internal/services/ytdlp"
)

// Downloader fetches episode audio.
type Downloader interface {
	DownloadAudio(ctx context.Context, url, outputDir string) (string, error)
}

// Transcriber converts audio into transcript text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// ContentGenerator produces the artifact set for a chunked episode.
type ContentGenerator interface {
	Generate(ctx context.Context, episodeID string, force bool) (*generate.Result, error)
}

// Detector discovers new episodes from the configured feed.
type Detector func(ctx context.Context) (feed.DetectResult, error)

// Runner drives episodes through the stage table.
type Runner struct {
	store       *episode.Store
	cfg         *config.Config
	logger      *slog.Logger
	downloader  Downloader
	transcriber Transcriber
	generator   ContentGenerator
	detect      Detector
}

// RunnerOption customizes a runner, mainly for tests.
type RunnerOption func(*Runner)

// WithDownloader overrides the audio downloader.
func WithDownloader(d Downloader) RunnerOption {
	return func(r *Runner) { r.downloader = d }
}

// WithTranscriber overrides the transcription service.
func WithTranscriber(t Transcriber) RunnerOption {
	return func(r *Runner) { r.transcriber = t }
}

// WithGenerator overrides the content generator.
func WithGenerator(g ContentGenerator) RunnerOption {
	return func(r *Runner) { r.generator = g }
}

// WithDetector overrides feed detection.
func WithDetector(d Detector) RunnerOption {
	return func(r *Runner) { r.detect = d }
}

// NewRunner wires a runner with the real collaborator services.
func NewRunner(store *episode.Store, cfg *config.Config, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}

	client := anthropic.NewClient(anthropic.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		MaxTokens:      cfg.LLM.MaxTokens,
		Temperature:    cfg.LLM.Temperature,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		DryRun:         cfg.LLM.DryRun,
	})

	r := &Runner{
		store:      store,
		cfg:        cfg,
		logger:     logger,
		downloader: ytdlp.NewService(cfg.YtdlpBinary(), ytdlp.DefaultAudioFormat),
		transcriber: whisper.NewService(whisper.Config{
			APIKey:         cfg.Whisper.APIKey,
			BaseURL:        cfg.Whisper.BaseURL,
			Model:          cfg.Whisper.Model,
			Language:       cfg.Whisper.Language,
			MaxChunkMB:     cfg.Whisper.MaxChunkMB,
			TimeoutSeconds: cfg.Whisper.TimeoutSeconds,
		}, cfg.FFmpegBinary()),
		generator: generate.NewGenerator(store, client, cfg, logger),
		detect: func(ctx context.Context) (feed.DetectResult, error) {
			return feed.Detect(ctx, store, cfg, logger)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunEpisode runs all due stages for one episode in order. The first stage
// failure stops the run; its message is recorded on the episode and the
// retry counter advances exactly once.
func (r *Runner) RunEpisode(ctx context.Context, episodeID string, force bool) (*Report, error) {
	ep, err := r.store.GetByID(ctx, episodeID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		EpisodeID: ep.ID,
		Title:     ep.Title,
		StartedAt: time.Now().UTC(),
	}
	correlationID := uuid.NewString()
	ctx = services.WithEpisodeID(services.WithRequestID(ctx, correlationID), ep.ID)
	log := logging.WithContext(ctx, r.logger)

	for _, planned := range ResolvePlan(ep.Status, force) {
		log.Info("pipeline plan",
			slog.String("stage", planned.Stage),
			slog.String("decision", planned.Decision),
			slog.String("reason", planned.Reason))
	}
	log.Info("pipeline start", slog.String("title", ep.Title))

	for _, spec := range stageTable {
		// The previous stage advanced the status; re-read before deciding.
		ep, err = r.store.GetByID(ctx, episodeID)
		if err != nil {
			return nil, err
		}

		currentOrder := ep.Status.Order()
		requiredOrder := spec.Requires.Order()
		if currentOrder > requiredOrder {
			report.Stages = append(report.Stages, StageResult{
				Stage: spec.Name, Status: StageSkipped, Detail: "already completed",
			})
			continue
		}
		if currentOrder < requiredOrder && !force {
			report.Stages = append(report.Stages, StageResult{
				Stage: spec.Name, Status: StageSkipped, Detail: "not ready",
			})
			continue
		}

		stageCtx := services.WithStage(ctx, spec.Name)
		stageLog := logging.WithContext(stageCtx, r.logger)

		runID, err := r.store.StartRun(stageCtx, ep.ID, spec.Name, correlationID)
		if err != nil {
			return nil, err
		}
		started := time.Now()
		output, stageErr := spec.run(stageCtx, r, ep, force)
		duration := time.Since(started)

		if stageErr != nil {
			if err := r.store.FinishRun(ctx, runID, episode.RunOutcome{
				Status:       episode.RunFailed,
				ErrorMessage: stageErr.Error(),
			}); err != nil {
				return nil, err
			}
			report.Stages = append(report.Stages, StageResult{
				Stage:           spec.Name,
				Status:          StageFailed,
				DurationSeconds: duration.Seconds(),
				Error:           stageErr.Error(),
			})
			report.Error = fmt.Sprintf("Stage '%s' failed: %s", spec.Name, stageErr)
			stageLog.Error("stage failed", slog.String("error", stageErr.Error()))
			if err := r.store.RecordFailure(ctx, ep.ID, report.Error); err != nil {
				return nil, err
			}
			break
		}

		if err := r.store.FinishRun(ctx, runID, episode.RunOutcome{
			Status:       episode.RunSuccess,
			InputTokens:  output.inputTokens,
			OutputTokens: output.outputTokens,
			CostUSD:      output.costUSD,
		}); err != nil {
			return nil, err
		}
		report.Stages = append(report.Stages, StageResult{
			Stage:           spec.Name,
			Status:          StageSuccess,
			DurationSeconds: duration.Seconds(),
			Detail:          output.detail,
			CostUSD:         output.costUSD,
		})
		stageLog.Info("stage done",
			slog.String("detail", output.detail),
			slog.Duration("duration", duration))
	}

	if report.Error == "" {
		report.Success = true
		ep, err = r.store.GetByID(ctx, episodeID)
		if err != nil {
			return nil, err
		}
		if ep.ErrorMessage != "" {
			if err := r.store.ClearError(ctx, ep.ID); err != nil {
				return nil, err
			}
		}
	}

	completed := time.Now().UTC()
	report.CompletedAt = &completed
	for _, stage := range report.Stages {
		report.TotalCostUSD += stage.CostUSD
	}

	log.Info("pipeline finished",
		slog.Bool("success", report.Success),
		slog.Float64("cost_usd", report.TotalCostUSD))
	return report, nil
}

// RunPending processes all pending episodes oldest first. since restricts to
// episodes published on or after that time; max caps the batch when positive.
// A failing episode does not stop the batch.
func (r *Runner) RunPending(ctx context.Context, since *time.Time, max int) ([]*Report, error) {
	pending, err := r.store.ListPending(ctx, since)
	if err != nil {
		return nil, err
	}
	if max > 0 && len(pending) > max {
		pending = pending[:max]
	}
	if len(pending) == 0 {
		r.logger.Info("no pending episodes")
		return nil, nil
	}

	r.logger.Info("processing pending episodes", slog.Int("count", len(pending)))
	reports := make([]*Report, 0, len(pending))
	for _, ep := range pending {
		report, err := r.RunEpisode(ctx, ep.ID, false)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// RunLatest detects new episodes, then processes the newest pending one.
// Returns nil when there is nothing to do.
func (r *Runner) RunLatest(ctx context.Context) (*Report, error) {
	result, err := r.detect(ctx)
	if err != nil {
		return nil, err
	}
	r.logger.Info("detection finished",
		slog.Int("found", result.Found),
		slog.Int("new", result.New),
		slog.Int("total", result.Total))

	pending, err := r.store.ListPending(ctx, nil)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		r.logger.Info("no pending episodes after detection")
		return nil, nil
	}
	newest := pending[len(pending)-1]
	return r.RunEpisode(ctx, newest.ID, false)
}

// Retry re-runs a failed episode from its last reached milestone. The
// episode must carry an error or be in the failed status.
func (r *Runner) Retry(ctx context.Context, episodeID string) (*Report, error) {
	ep, err := r.store.GetByID(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	if ep.ErrorMessage == "" && ep.Status != episode.StatusFailed {
		return nil, services.Wrap(services.ErrPrecondition, "retry", "check_state",
			fmt.Sprintf("episode %s is %q with no recorded error; use run instead", episodeID, ep.Status), nil)
	}

	r.logger.Info("retrying episode",
		slog.String("episode_id", episodeID),
		slog.String("status", string(ep.Status)),
		slog.Int("attempt", ep.RetryCount+1))
	if err := r.store.ClearError(ctx, episodeID); err != nil {
		return nil, err
	}
	return r.RunEpisode(ctx, episodeID, false)
}
