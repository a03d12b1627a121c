package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"podforge/internal/services"
)

const (
	// DefaultMaxChunkMB is the upload ceiling before audio is split.
	DefaultMaxChunkMB = 24

	defaultHTTPTimeout = 600 * time.Second
	ffprobeBinary      = "ffprobe"
)

// Config captures the settings for the transcription API.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Language       string
	MaxChunkMB     int
	TimeoutSeconds int
}

// Service transcribes audio files, splitting oversized files into segments
// with ffmpeg before upload.
type Service struct {
	cfg           Config
	ffmpegBinary  string
	httpClient    *http.Client
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Option customizes the service.
type Option func(*Service)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) Option {
	return func(s *Service) {
		s.commandRunner = runner
	}
}

// NewService creates a transcription service.
func NewService(cfg Config, ffmpegBinary string, opts ...Option) *Service {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	if cfg.MaxChunkMB <= 0 {
		cfg.MaxChunkMB = DefaultMaxChunkMB
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	svc := &Service{
		cfg:          cfg,
		ffmpegBinary: ffmpegBinary,
		httpClient:   &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Transcribe returns the full transcript of an audio file. Files above the
// size ceiling are split into roughly equal segments and transcribed in order.
func (s *Service) Transcribe(ctx context.Context, audioPath string) (string, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return "", services.Wrap(services.ErrPrecondition, "transcribe", "stat_audio", "audio file missing", err)
	}

	sizeMB := float64(info.Size()) / (1024 * 1024)
	if sizeMB <= float64(s.cfg.MaxChunkMB) {
		return s.transcribeSingle(ctx, audioPath)
	}
	return s.transcribeChunked(ctx, audioPath, sizeMB)
}

func (s *Service) transcribeSingle(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("build form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("copy audio into form: %w", err)
	}
	fields := map[string]string{
		"model":           s.cfg.Model,
		"response_format": "text",
	}
	if s.cfg.Language != "" {
		fields["language"] = s.cfg.Language
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return "", fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "transcribe", "whisper_api", "request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrExternalTool, "transcribe", "whisper_api",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))), nil)
	}
	return strings.TrimSpace(string(payload)), nil
}

func (s *Service) transcribeChunked(ctx context.Context, audioPath string, sizeMB float64) (string, error) {
	numSegments := int(math.Ceil(sizeMB / float64(s.cfg.MaxChunkMB)))
	durationSec, err := s.probeDuration(ctx, audioPath)
	if err != nil {
		return "", err
	}
	segmentSec := int(durationSec) / numSegments
	if segmentSec <= 0 {
		segmentSec = 1
	}

	tmpDir := filepath.Join(filepath.Dir(audioPath), "_whisper_tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create segment dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	segmentTemplate := filepath.Join(tmpDir, "segment_%03d.mp3")
	if _, err := s.run(ctx, s.ffmpegBinary,
		"-y",
		"-i", audioPath,
		"-f", "segment",
		"-segment_time", strconv.Itoa(segmentSec),
		"-vn",
		"-acodec", "libmp3lame",
		segmentTemplate,
	); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "transcribe", "split_audio", "ffmpeg failed", err)
	}

	segments, err := filepath.Glob(filepath.Join(tmpDir, "segment_*.mp3"))
	if err != nil {
		return "", fmt.Errorf("glob segments: %w", err)
	}
	if len(segments) == 0 {
		return "", services.Wrap(services.ErrExternalTool, "transcribe", "split_audio", "no segments produced", nil)
	}
	sort.Strings(segments)

	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		text, err := s.transcribeSingle(ctx, segment)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n"), nil
}

func (s *Service) probeDuration(ctx context.Context, audioPath string) (float64, error) {
	output, err := s.run(ctx, ffprobeBinary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath,
	)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "transcribe", "probe_duration", "ffprobe failed", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(output)), err)
	}
	return duration, nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return output, nil
}
