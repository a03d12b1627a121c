package testsupport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"podforge/internal/config"
	"podforge/internal/episode"
)

// MustOpenStore opens an episode.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *episode.Store {
	t.Helper()

	store, err := episode.Open(cfg)
	if err != nil {
		t.Fatalf("episode.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewEpisode inserts a fresh episode for tests using the provided store.
func NewEpisode(t testing.TB, store *episode.Store, id, title string) *episode.Episode {
	t.Helper()

	published := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	ep := &episode.Episode{
		ID:          id,
		Title:       title,
		SourceURL:   "https://example.org/episodes/" + id,
		PublishedAt: &published,
	}
	inserted, err := store.Insert(context.Background(), ep)
	if err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	if !inserted {
		t.Fatalf("episode %s already present", id)
	}
	stored, err := store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("store.GetByID: %v", err)
	}
	return stored
}

// SeedChunks stores count sequential chunks of placeholder text for an episode.
func SeedChunks(t testing.TB, store *episode.Store, episodeID string, count int) []*episode.Chunk {
	t.Helper()

	chunks := make([]*episode.Chunk, 0, count)
	offset := 0
	for i := 0; i < count; i++ {
		text := fmt.Sprintf("Abschnitt %d des Transkripts über Bitcoin und Geldpolitik.", i)
		chunks = append(chunks, &episode.Chunk{
			ChunkID:       episode.ChunkID(episodeID, i),
			EpisodeID:     episodeID,
			Ordinal:       i,
			Text:          text,
			CharStart:     offset,
			CharEnd:       offset + len([]rune(text)),
			TokenEstimate: len([]rune(text)) / 4,
		})
		offset += len([]rune(text))
	}
	if err := store.ReplaceChunks(context.Background(), episodeID, chunks); err != nil {
		t.Fatalf("store.ReplaceChunks: %v", err)
	}
	return chunks
}
