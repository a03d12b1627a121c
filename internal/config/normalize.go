package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFeed()
	c.normalizeWhisper()
	c.normalizeLLM()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.AudioDir, err = expandPath(c.Paths.AudioDir); err != nil {
		return fmt.Errorf("paths.audio_dir: %w", err)
	}
	if c.Paths.TranscriptsDir, err = expandPath(c.Paths.TranscriptsDir); err != nil {
		return fmt.Errorf("paths.transcripts_dir: %w", err)
	}
	if c.Paths.ChunksDir, err = expandPath(c.Paths.ChunksDir); err != nil {
		return fmt.Errorf("paths.chunks_dir: %w", err)
	}
	if c.Paths.OutputsDir, err = expandPath(c.Paths.OutputsDir); err != nil {
		return fmt.Errorf("paths.outputs_dir: %w", err)
	}
	if c.Paths.ReportsDir, err = expandPath(c.Paths.ReportsDir); err != nil {
		return fmt.Errorf("paths.reports_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	if c.Paths.LockPath, err = expandPath(c.Paths.LockPath); err != nil {
		return fmt.Errorf("paths.lock_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeFeed() {
	c.Feed.SourceType = strings.ToLower(strings.TrimSpace(c.Feed.SourceType))
	c.Feed.RSSURL = strings.TrimSpace(c.Feed.RSSURL)
	c.Feed.YouTubeChannelID = strings.TrimSpace(c.Feed.YouTubeChannelID)
	if c.Feed.RequestTimeout <= 0 {
		c.Feed.RequestTimeout = defaultFeedRequestTimeout
	}
}

func (c *Config) normalizeWhisper() {
	if c.Whisper.APIKey == "" {
		c.Whisper.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	c.Whisper.BaseURL = strings.TrimRight(strings.TrimSpace(c.Whisper.BaseURL), "/")
	if c.Whisper.BaseURL == "" {
		c.Whisper.BaseURL = defaultWhisperBaseURL
	}
	if c.Whisper.Model == "" {
		c.Whisper.Model = defaultWhisperModel
	}
	if c.Whisper.MaxChunkMB <= 0 {
		c.Whisper.MaxChunkMB = defaultWhisperMaxChunkMB
	}
	if c.Whisper.TimeoutSeconds <= 0 {
		c.Whisper.TimeoutSeconds = defaultWhisperTimeoutSeconds
	}
}

func (c *Config) normalizeLLM() {
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	}
	c.LLM.BaseURL = strings.TrimRight(strings.TrimSpace(c.LLM.BaseURL), "/")
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = defaultLLMMaxTokens
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
