package feed

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"podforge/internal/services"
)

const userAgent = "podforge/0.1"

// Entry is one episode discovered in a feed.
type Entry struct {
	EpisodeID   string
	Title       string
	URL         string
	PublishedAt *time.Time
	Source      string
}

// Fetch retrieves raw feed content from a URL.
func Fetch(ctx context.Context, url string, timeout time.Duration) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", services.Wrap(services.ErrConfiguration, "detect", "fetch_feed", "no feed URL configured", nil)
	}
	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read feed body: %w", err)
	}
	return string(body), nil
}

// Parse extracts episode entries from feed content. YouTube channel feeds use
// the video id as episode id; generic RSS entries derive a stable id from the
// link URL.
func Parse(content, sourceType string) ([]Entry, error) {
	parsed, err := gofeed.NewParser().ParseString(content)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var entries []Entry
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		switch sourceType {
		case "youtube_rss":
			videoID := youtubeVideoID(item)
			if videoID == "" {
				continue
			}
			link := item.Link
			if link == "" {
				link = "https://www.youtube.com/watch?v=" + videoID
			}
			entries = append(entries, Entry{
				EpisodeID:   videoID,
				Title:       itemTitle(item),
				URL:         link,
				PublishedAt: item.PublishedParsed,
				Source:      "youtube_rss",
			})
		default:
			if item.Link == "" {
				continue
			}
			entries = append(entries, Entry{
				EpisodeID:   fallbackID(item.Link),
				Title:       itemTitle(item),
				URL:         item.Link,
				PublishedAt: item.PublishedParsed,
				Source:      "rss",
			})
		}
	}
	return entries, nil
}

func itemTitle(item *gofeed.Item) string {
	if strings.TrimSpace(item.Title) == "" {
		return "Untitled"
	}
	return item.Title
}

func youtubeVideoID(item *gofeed.Item) string {
	if yt, ok := item.Extensions["yt"]; ok {
		if ids, ok := yt["videoId"]; ok && len(ids) > 0 {
			if id := strings.TrimSpace(ids[0].Value); id != "" {
				return id
			}
		}
	}
	// Fallback: parse from the link URL.
	link := item.Link
	if strings.Contains(link, "youtube.com/watch") && strings.Contains(link, "v=") {
		id := link[strings.Index(link, "v=")+2:]
		if amp := strings.IndexByte(id, '&'); amp >= 0 {
			id = id[:amp]
		}
		return id
	}
	return ""
}

// fallbackID derives a stable episode id from a URL.
func fallbackID(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])[:12]
}
