package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"podforge/internal/chunker"
	"podforge/internal/episode"
	"podforge/internal/services"
	"podforge/internal/services/whisper"
)

// Stage names in execution order.
const (
	StageDownload   = "download"
	StageTranscribe = "transcribe"
	StageChunk      = "chunk"
	StageGenerate   = "generate"
)

// Transcript filenames under transcripts_dir/{episode_id}/.
const (
	rawTranscriptName   = "transcript.de.txt"
	cleanTranscriptName = "transcript.clean.de.txt"
)

type stageOutput struct {
	detail       string
	inputTokens  int64
	outputTokens int64
	costUSD      float64
}

type stageFunc func(ctx context.Context, r *Runner, ep *episode.Episode, force bool) (stageOutput, error)

// StageSpec binds a stage name to the status required to enter it and its
// implementation. The table is closed: every runnable stage is listed here.
type StageSpec struct {
	Name     string
	Requires episode.Status
	run      stageFunc
}

var stageTable = []StageSpec{
	{StageDownload, episode.StatusNew, runDownload},
	{StageTranscribe, episode.StatusDownloaded, runTranscribe},
	{StageChunk, episode.StatusTranscribed, runChunk},
	{StageGenerate, episode.StatusChunked, runGenerate},
}

// StageNames returns the ordered stage names.
func StageNames() []string {
	names := make([]string, len(stageTable))
	for i, spec := range stageTable {
		names[i] = spec.Name
	}
	return names
}

func runDownload(ctx context.Context, r *Runner, ep *episode.Episode, force bool) (stageOutput, error) {
	if ep.AudioPath != "" && !force {
		if _, err := os.Stat(ep.AudioPath); err == nil {
			return stageOutput{detail: ep.AudioPath}, nil
		}
	}

	outputDir := r.cfg.EpisodeAudioDir(ep.ID)
	audioPath, err := r.downloader.DownloadAudio(ctx, ep.SourceURL, outputDir)
	if err != nil {
		return stageOutput{}, err
	}
	if err := r.store.SetAudioPath(ctx, ep.ID, audioPath); err != nil {
		return stageOutput{}, err
	}
	if err := r.store.SetStatus(ctx, ep.ID, episode.StatusDownloaded); err != nil {
		return stageOutput{}, err
	}
	return stageOutput{detail: audioPath}, nil
}

func runTranscribe(ctx context.Context, r *Runner, ep *episode.Episode, force bool) (stageOutput, error) {
	if !force && ep.Status != episode.StatusDownloaded && ep.Status != episode.StatusTranscribed {
		return stageOutput{}, services.Wrap(services.ErrPrecondition, StageTranscribe, "check_status",
			fmt.Sprintf("episode %s is %q, expected %q", ep.ID, ep.Status, episode.StatusDownloaded), nil)
	}

	transcriptDir := filepath.Join(r.cfg.Paths.TranscriptsDir, ep.ID)
	rawPath := filepath.Join(transcriptDir, rawTranscriptName)
	cleanPath := filepath.Join(transcriptDir, cleanTranscriptName)

	// An existing clean transcript is reused, but the status still advances.
	if !force {
		if _, err := os.Stat(cleanPath); err == nil {
			if ep.Status == episode.StatusDownloaded {
				if err := r.store.SetTranscriptPath(ctx, ep.ID, cleanPath); err != nil {
					return stageOutput{}, err
				}
				if err := r.store.SetStatus(ctx, ep.ID, episode.StatusTranscribed); err != nil {
					return stageOutput{}, err
				}
			}
			return stageOutput{detail: cleanPath}, nil
		}
	}

	if ep.AudioPath == "" {
		return stageOutput{}, services.Wrap(services.ErrPrecondition, StageTranscribe, "check_audio",
			fmt.Sprintf("no audio file for episode %s", ep.ID), nil)
	}

	rawText, err := r.transcriber.Transcribe(ctx, ep.AudioPath)
	if err != nil {
		return stageOutput{}, err
	}
	if err := os.MkdirAll(transcriptDir, 0o755); err != nil {
		return stageOutput{}, fmt.Errorf("create transcript dir: %w", err)
	}
	if err := os.WriteFile(rawPath, []byte(rawText), 0o644); err != nil {
		return stageOutput{}, fmt.Errorf("write raw transcript: %w", err)
	}
	cleaned := whisper.CleanTranscript(rawText)
	if err := os.WriteFile(cleanPath, []byte(cleaned), 0o644); err != nil {
		return stageOutput{}, fmt.Errorf("write clean transcript: %w", err)
	}

	if err := r.store.SetTranscriptPath(ctx, ep.ID, cleanPath); err != nil {
		return stageOutput{}, err
	}
	if err := r.store.SetStatus(ctx, ep.ID, episode.StatusTranscribed); err != nil {
		return stageOutput{}, err
	}
	return stageOutput{detail: cleanPath}, nil
}

func runChunk(ctx context.Context, r *Runner, ep *episode.Episode, force bool) (stageOutput, error) {
	if !force && ep.Status != episode.StatusTranscribed && ep.Status != episode.StatusChunked {
		return stageOutput{}, services.Wrap(services.ErrPrecondition, StageChunk, "check_status",
			fmt.Sprintf("episode %s is %q, expected %q", ep.ID, ep.Status, episode.StatusTranscribed), nil)
	}

	chunksDir := filepath.Join(r.cfg.Paths.ChunksDir, ep.ID)
	jsonlPath := filepath.Join(chunksDir, "chunks.jsonl")

	if !force {
		if _, err := os.Stat(jsonlPath); err == nil {
			if ep.Status == episode.StatusTranscribed {
				if err := r.store.SetStatus(ctx, ep.ID, episode.StatusChunked); err != nil {
					return stageOutput{}, err
				}
			}
			count, err := r.store.CountChunks(ctx, ep.ID)
			if err != nil {
				return stageOutput{}, err
			}
			return stageOutput{detail: fmt.Sprintf("%d chunks", count)}, nil
		}
	}

	if ep.TranscriptPath == "" {
		return stageOutput{}, services.Wrap(services.ErrPrecondition, StageChunk, "check_transcript",
			fmt.Sprintf("no transcript for episode %s", ep.ID), nil)
	}
	transcript, err := os.ReadFile(ep.TranscriptPath)
	if err != nil {
		return stageOutput{}, fmt.Errorf("read transcript: %w", err)
	}

	chunks := chunker.Split(string(transcript), ep.ID, r.cfg.Chunking.ChunkSize, r.cfg.Chunking.OverlapRatio)
	if _, err := chunker.WriteJSONL(chunks, chunksDir); err != nil {
		return stageOutput{}, err
	}
	if err := r.store.ReplaceChunks(ctx, ep.ID, chunks); err != nil {
		return stageOutput{}, err
	}
	if err := r.store.SetStatus(ctx, ep.ID, episode.StatusChunked); err != nil {
		return stageOutput{}, err
	}
	return stageOutput{detail: fmt.Sprintf("%d chunks", len(chunks))}, nil
}

func runGenerate(ctx context.Context, r *Runner, ep *episode.Episode, force bool) (stageOutput, error) {
	result, err := r.generator.Generate(ctx, ep.ID, force)
	if err != nil {
		return stageOutput{}, err
	}
	if err := r.store.SetOutputDir(ctx, ep.ID, result.OutputDir); err != nil {
		return stageOutput{}, err
	}
	if err := r.store.SetStatus(ctx, ep.ID, episode.StatusGenerated); err != nil {
		return stageOutput{}, err
	}
	return stageOutput{
		detail:       fmt.Sprintf("%d artifacts ($%.4f)", len(result.Artifacts), result.CostUSD),
		inputTokens:  result.InputTokens,
		outputTokens: result.OutputTokens,
		costUSD:      result.CostUSD,
	}, nil
}
