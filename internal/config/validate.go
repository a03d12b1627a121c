package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateChunking(); err != nil {
		return err
	}
	if err := c.validateRetrieval(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFeed() error {
	switch c.Feed.SourceType {
	case "rss":
		if c.Feed.RSSURL == "" {
			return errors.New("feed.rss_url must be set when feed.source_type is \"rss\"")
		}
	case "youtube_rss":
		if c.Feed.YouTubeChannelID == "" {
			return errors.New("feed.youtube_channel_id must be set when feed.source_type is \"youtube_rss\"")
		}
	default:
		return fmt.Errorf("feed.source_type must be \"rss\" or \"youtube_rss\", got %q", c.Feed.SourceType)
	}
	return nil
}

func (c *Config) validateChunking() error {
	if c.Chunking.ChunkSize <= 0 {
		return errors.New("chunking.chunk_size must be positive")
	}
	if c.Chunking.OverlapRatio < 0 || c.Chunking.OverlapRatio >= 1 {
		return errors.New("chunking.overlap_ratio must be in [0, 1)")
	}
	return nil
}

func (c *Config) validateRetrieval() error {
	if c.Retrieval.TopK <= 0 {
		return errors.New("retrieval.top_k must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.DownloadTimeout <= 0 {
		return errors.New("workflow.download_timeout must be positive")
	}
	if c.Workflow.MaxRetries < 0 {
		return errors.New("workflow.max_retries must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\", \"text\", or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
