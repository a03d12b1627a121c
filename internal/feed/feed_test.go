package feed_test

import (
	"context"
	"testing"

	"podforge/internal/episode"
	"podforge/internal/feed"
	"podforge/internal/testsupport"
)

const youtubeFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <title>Der Bitcoin Podcast</title>
  <entry>
    <id>yt:video:dQw4w9WgXcQ</id>
    <yt:videoId>dQw4w9WgXcQ</yt:videoId>
    <title>Folge 12: Was ist Knappheit?</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=dQw4w9WgXcQ"/>
    <published>2026-01-05T09:00:00+00:00</published>
  </entry>
  <entry>
    <id>yt:video:abc123def45</id>
    <yt:videoId>abc123def45</yt:videoId>
    <title>Folge 13: Halving erklärt</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=abc123def45"/>
    <published>2026-01-12T09:00:00+00:00</published>
  </entry>
</feed>`

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Der Bitcoin Podcast</title>
    <item>
      <title>Folge 1: Was ist Geld?</title>
      <link>https://example.org/episodes/folge-1</link>
      <pubDate>Mon, 05 Jan 2026 09:00:00 GMT</pubDate>
    </item>
    <item>
      <title></title>
      <link>https://example.org/episodes/folge-2</link>
      <pubDate>Mon, 12 Jan 2026 09:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Kein Link</title>
    </item>
  </channel>
</rss>`

func TestParseYouTubeFeed(t *testing.T) {
	entries, err := feed.Parse(youtubeFeed, "youtube_rss")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].EpisodeID != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected episode id: %q", entries[0].EpisodeID)
	}
	if entries[0].URL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Fatalf("unexpected url: %q", entries[0].URL)
	}
	if entries[0].PublishedAt == nil {
		t.Fatal("expected published date")
	}
	if entries[0].Source != "youtube_rss" {
		t.Fatalf("unexpected source: %q", entries[0].Source)
	}
}

func TestParseRSSFeed(t *testing.T) {
	entries, err := feed.Parse(rssFeed, "rss")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	// The item without a link is skipped.
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if len(entries[0].EpisodeID) != 12 {
		t.Fatalf("expected 12-char derived id, got %q", entries[0].EpisodeID)
	}
	if entries[1].Title != "Untitled" {
		t.Fatalf("expected Untitled fallback, got %q", entries[1].Title)
	}

	// IDs are stable across parses of the same link.
	again, err := feed.Parse(rssFeed, "rss")
	if err != nil {
		t.Fatalf("second Parse failed: %v", err)
	}
	if entries[0].EpisodeID != again[0].EpisodeID {
		t.Fatal("expected deterministic episode ids")
	}
}

func TestDetectFromContentIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	result, err := feed.DetectFromContent(ctx, store, youtubeFeed, "youtube_rss", nil)
	if err != nil {
		t.Fatalf("DetectFromContent failed: %v", err)
	}
	if result.Found != 2 || result.New != 2 || result.Total != 2 {
		t.Fatalf("unexpected first result: %+v", result)
	}

	result, err = feed.DetectFromContent(ctx, store, youtubeFeed, "youtube_rss", nil)
	if err != nil {
		t.Fatalf("second DetectFromContent failed: %v", err)
	}
	if result.Found != 2 || result.New != 0 || result.Total != 2 {
		t.Fatalf("unexpected second result: %+v", result)
	}

	ep, err := store.GetByID(ctx, "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if ep.Status != episode.StatusNew {
		t.Fatalf("expected status new, got %q", ep.Status)
	}
}
