package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"podforge/internal/services"
)

// DefaultBinary is the yt-dlp executable name.
const DefaultBinary = "yt-dlp"

// DefaultAudioFormat is the extraction format requested from yt-dlp.
const DefaultAudioFormat = "m4a"

// Service downloads episode audio via yt-dlp.
type Service struct {
	binary        string
	audioFormat   string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a downloader. An empty binary falls back to yt-dlp on PATH.
func NewService(binary, audioFormat string) *Service {
	if binary == "" {
		binary = DefaultBinary
	}
	if audioFormat == "" {
		audioFormat = DefaultAudioFormat
	}
	return &Service{binary: binary, audioFormat: audioFormat}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// DownloadAudio fetches the audio track of url into outputDir and returns the
// downloaded file path. yt-dlp may pick a different container than requested,
// so the result is resolved by globbing for audio.* after the run.
func (s *Service) DownloadAudio(ctx context.Context, url, outputDir string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", services.Wrap(services.ErrValidation, "download", "download_audio", "url required", nil)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	outputTemplate := filepath.Join(outputDir, "audio.%(ext)s")
	args := []string{
		"--extract-audio",
		"--audio-format", s.audioFormat,
		"--output", outputTemplate,
		"--no-playlist",
		"--quiet",
		"--no-warnings",
		url,
	}

	if err := s.run(ctx, s.binary, args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "download", "download_audio", "yt-dlp failed", err)
	}

	audioFile := filepath.Join(outputDir, "audio."+s.audioFormat)
	if _, err := os.Stat(audioFile); err == nil {
		return audioFile, nil
	}
	candidates, err := filepath.Glob(filepath.Join(outputDir, "audio.*"))
	if err != nil {
		return "", fmt.Errorf("glob audio output: %w", err)
	}
	if len(candidates) == 0 {
		return "", services.Wrap(services.ErrExternalTool, "download", "download_audio",
			fmt.Sprintf("no audio file found in %s after download", outputDir), nil)
	}
	return candidates[0], nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
