package feed

import (
	"context"
	"log/slog"
	"time"

	"podforge/internal/config"
	"podforge/internal/episode"
	"podforge/internal/logging"
)

// DetectResult summarizes one detection pass.
type DetectResult struct {
	Found int
	New   int
	Total int
}

// FeedURL resolves the configured source into a concrete feed URL.
func FeedURL(cfg *config.Config) string {
	if cfg.Feed.SourceType == "youtube_rss" {
		return "https://www.youtube.com/feeds/videos.xml?channel_id=" + cfg.Feed.YouTubeChannelID
	}
	return cfg.Feed.RSSURL
}

// Detect fetches the configured feed and inserts unseen episodes in status
// "new". Re-running is safe: existing episodes are left untouched.
func Detect(ctx context.Context, store *episode.Store, cfg *config.Config, logger *slog.Logger) (DetectResult, error) {
	content, err := Fetch(ctx, FeedURL(cfg), time.Duration(cfg.Feed.RequestTimeout)*time.Second)
	if err != nil {
		return DetectResult{}, err
	}
	return DetectFromContent(ctx, store, content, cfg.Feed.SourceType, logger)
}

// DetectFromContent inserts unseen episodes from already-fetched feed content.
func DetectFromContent(ctx context.Context, store *episode.Store, content, sourceType string, logger *slog.Logger) (DetectResult, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	entries, err := Parse(content, sourceType)
	if err != nil {
		return DetectResult{}, err
	}

	result := DetectResult{Found: len(entries)}
	for _, entry := range entries {
		inserted, err := store.Insert(ctx, &episode.Episode{
			ID:          entry.EpisodeID,
			Title:       entry.Title,
			SourceURL:   entry.URL,
			PublishedAt: entry.PublishedAt,
		})
		if err != nil {
			return result, err
		}
		if inserted {
			result.New++
			logger.Info("new episode detected",
				logging.String(logging.FieldEpisodeID, entry.EpisodeID),
				logging.String("title", entry.Title))
		}
	}

	all, err := store.List(ctx)
	if err != nil {
		return result, err
	}
	result.Total = len(all)
	return result, nil
}
