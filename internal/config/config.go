package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for pipeline artifacts.
type Paths struct {
	DataDir        string `toml:"data_dir"`
	AudioDir       string `toml:"audio_dir"`
	TranscriptsDir string `toml:"transcripts_dir"`
	ChunksDir      string `toml:"chunks_dir"`
	OutputsDir     string `toml:"outputs_dir"`
	ReportsDir     string `toml:"reports_dir"`
	LogDir         string `toml:"log_dir"`
	DatabasePath   string `toml:"database_path"`
	LockPath       string `toml:"lock_path"`
}

// Feed contains the podcast source configuration.
type Feed struct {
	SourceType       string `toml:"source_type"`
	RSSURL           string `toml:"rss_url"`
	YouTubeChannelID string `toml:"youtube_channel_id"`
	RequestTimeout   int    `toml:"request_timeout"`
}

// Whisper contains configuration for the transcription API.
type Whisper struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	Language       string  `toml:"language"`
	MaxChunkMB     int     `toml:"max_chunk_mb"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Temperature    float64 `toml:"temperature"`
}

// LLM contains configuration for the content generation model.
type LLM struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	MaxTokens      int     `toml:"max_tokens"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	DryRun         bool    `toml:"dry_run"`
}

// Chunking contains transcript segmentation settings.
type Chunking struct {
	ChunkSize    int     `toml:"chunk_size"`
	OverlapRatio float64 `toml:"overlap_ratio"`
}

// Retrieval contains lexical search settings.
type Retrieval struct {
	TopK int `toml:"top_k"`
}

// Workflow contains run-loop timing settings.
type Workflow struct {
	DownloadTimeout int `toml:"download_timeout"`
	MaxRetries      int `toml:"max_retries"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for podforge.
//
// Configuration sections by subsystem:
//   - Paths: directories, database, and lock file locations
//   - Feed: podcast source (RSS feed or YouTube channel)
//   - Whisper: transcription API settings
//   - LLM: content generation model settings
//   - Chunking: transcript segmentation parameters
//   - Retrieval: lexical search parameters
//   - Workflow: timeouts and retry limits
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Feed      Feed      `toml:"feed"`
	Whisper   Whisper   `toml:"whisper"`
	LLM       LLM       `toml:"llm"`
	Chunking  Chunking  `toml:"chunking"`
	Retrieval Retrieval `toml:"retrieval"`
	Workflow  Workflow  `toml:"workflow"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/podforge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("podforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories every pipeline stage writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.AudioDir,
		c.Paths.TranscriptsDir,
		c.Paths.ChunksDir,
		c.Paths.OutputsDir,
		c.Paths.ReportsDir,
		c.Paths.LogDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dbDir := filepath.Dir(c.Paths.DatabasePath); dbDir != "" {
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			return fmt.Errorf("create database directory %q: %w", dbDir, err)
		}
	}
	return nil
}

// YtdlpBinary returns the yt-dlp executable name.
func (c *Config) YtdlpBinary() string {
	return "yt-dlp"
}

// FFmpegBinary returns the ffmpeg executable name used for audio splitting.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EpisodeOutputDir returns the output directory for a single episode's artifacts.
func (c *Config) EpisodeOutputDir(episodeID string) string {
	return filepath.Join(c.Paths.OutputsDir, episodeID)
}

// EpisodeAudioDir returns the audio directory for a single episode.
func (c *Config) EpisodeAudioDir(episodeID string) string {
	return filepath.Join(c.Paths.AudioDir, episodeID)
}
