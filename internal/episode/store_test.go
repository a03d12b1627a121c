package episode_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"podforge/internal/episode"
	"podforge/internal/services"
	"podforge/internal/testsupport"
)

func TestInsertIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	published := time.Date(2026, time.February, 10, 8, 30, 0, 0, time.UTC)
	ep := &episode.Episode{
		ID:          "ep001",
		Title:       "Folge 1: Was ist Geld?",
		SourceURL:   "https://example.org/ep001.mp3",
		PublishedAt: &published,
	}

	inserted, err := store.Insert(ctx, ep)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if !inserted {
		t.Fatal("expected first insert to report true")
	}

	again, err := store.Insert(ctx, ep)
	if err != nil {
		t.Fatalf("second Insert failed: %v", err)
	}
	if again {
		t.Fatal("expected duplicate insert to report false")
	}

	fetched, err := store.GetByID(ctx, "ep001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != episode.StatusNew {
		t.Fatalf("expected status new, got %q", fetched.Status)
	}
	if fetched.Title != ep.Title {
		t.Fatalf("unexpected title: %q", fetched.Title)
	}
	if fetched.PublishedAt == nil || !fetched.PublishedAt.Equal(published) {
		t.Fatalf("unexpected published_at: %v", fetched.PublishedAt)
	}
}

func TestGetByIDMissingReturnsNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatusTransitionsAndFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewEpisode(t, store, "ep001", "Folge 1")

	if err := store.SetStatus(ctx, "ep001", episode.StatusDownloaded); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	if err := store.RecordFailure(ctx, "ep001", "Stage 'transcribe' failed: upload timed out"); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}
	ep, err := store.GetByID(ctx, "ep001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if ep.Status != episode.StatusDownloaded {
		t.Fatalf("expected milestone status kept, got %q", ep.Status)
	}
	if ep.RetryCount != 1 {
		t.Fatalf("expected retry_count 1, got %d", ep.RetryCount)
	}
	if ep.ErrorMessage == "" {
		t.Fatal("expected error message to be stored")
	}

	if err := store.ClearError(ctx, "ep001"); err != nil {
		t.Fatalf("ClearError failed: %v", err)
	}
	ep, err = store.GetByID(ctx, "ep001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if ep.ErrorMessage != "" {
		t.Fatalf("expected error cleared, got %q", ep.ErrorMessage)
	}
	if ep.RetryCount != 1 {
		t.Fatalf("expected retry history preserved, got %d", ep.RetryCount)
	}

	if err := store.SetStatus(ctx, "ep001", episode.StatusTranscribed); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	ep, err = store.GetByID(ctx, "ep001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if ep.Status != episode.StatusTranscribed {
		t.Fatalf("expected transcribed, got %q", ep.Status)
	}
}

func TestStatusOrderComparisons(t *testing.T) {
	if episode.StatusNew.Order() != 0 {
		t.Fatalf("new order: %d", episode.StatusNew.Order())
	}
	if episode.StatusCompleted.Order() != 5 {
		t.Fatalf("completed order: %d", episode.StatusCompleted.Order())
	}
	if episode.StatusFailed.Order() != -1 {
		t.Fatalf("failed order: %d", episode.StatusFailed.Order())
	}
	if !episode.StatusChunked.Reached(episode.StatusTranscribed) {
		t.Fatal("chunked should have reached transcribed")
	}
	if episode.StatusDownloaded.Reached(episode.StatusChunked) {
		t.Fatal("downloaded should not have reached chunked")
	}
	if episode.StatusFailed.Reached(episode.StatusNew) {
		t.Fatal("failed should have reached nothing")
	}
}

func TestReplaceChunksRebuildsIndex(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewEpisode(t, store, "ep001", "Folge 1")
	testsupport.SeedChunks(t, store, "ep001", 5)

	count, err := store.CountChunks(ctx, "ep001")
	if err != nil {
		t.Fatalf("CountChunks failed: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected 5 chunks, got %d", count)
	}

	// Replacing with fewer chunks must not leave stale index rows behind.
	replacement := []*episode.Chunk{{
		ChunkID:       episode.ChunkID("ep001", 0),
		EpisodeID:     "ep001",
		Ordinal:       0,
		Text:          "Neues Transkript über Inflation.",
		CharStart:     0,
		CharEnd:       31,
		TokenEstimate: 8,
	}}
	if err := store.ReplaceChunks(ctx, "ep001", replacement); err != nil {
		t.Fatalf("ReplaceChunks failed: %v", err)
	}

	count, err = store.CountChunks(ctx, "ep001")
	if err != nil {
		t.Fatalf("CountChunks failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 chunk after replacement, got %d", count)
	}

	matches, err := store.SearchChunks(ctx, "ep001", `"Bitcoin"`, 10)
	if err != nil {
		t.Fatalf("SearchChunks failed: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches for replaced text, got %d", len(matches))
	}

	matches, err = store.SearchChunks(ctx, "ep001", `"Inflation"`, 10)
	if err != nil {
		t.Fatalf("SearchChunks failed: %v", err)
	}
	if len(matches) != 1 || matches[0].ChunkID != episode.ChunkID("ep001", 0) {
		t.Fatalf("unexpected matches: %#v", matches)
	}
}

func TestSearchChunksScopedToEpisode(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewEpisode(t, store, "ep001", "Folge 1")
	testsupport.NewEpisode(t, store, "ep002", "Folge 2")
	testsupport.SeedChunks(t, store, "ep001", 3)
	testsupport.SeedChunks(t, store, "ep002", 3)

	matches, err := store.SearchChunks(ctx, "ep001", `"Bitcoin"`, 10)
	if err != nil {
		t.Fatalf("SearchChunks failed: %v", err)
	}
	for _, match := range matches {
		if match.EpisodeID != "ep001" {
			t.Fatalf("match leaked from episode %s", match.EpisodeID)
		}
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
}

func TestChunksByOrdinal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewEpisode(t, store, "ep001", "Folge 1")
	testsupport.SeedChunks(t, store, "ep001", 6)

	first, err := store.ChunksByOrdinal(ctx, "ep001", 3)
	if err != nil {
		t.Fatalf("ChunksByOrdinal failed: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(first))
	}
	for i, chunk := range first {
		if chunk.Ordinal != i {
			t.Fatalf("expected ordinal %d, got %d", i, chunk.Ordinal)
		}
	}
}

func TestRunLifecycleFoldsOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewEpisode(t, store, "ep001", "Folge 1")

	runID, err := store.StartRun(ctx, "ep001", "generate", "corr-1")
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	outcome := episode.RunOutcome{
		Status:       episode.RunSuccess,
		InputTokens:  12000,
		OutputTokens: 3500,
		CostUSD:      0.0885,
	}
	if err := store.FinishRun(ctx, runID, outcome); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	err = store.FinishRun(ctx, runID, outcome)
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition on double finish, got %v", err)
	}

	runs, err := store.RunsForEpisode(ctx, "ep001")
	if err != nil {
		t.Fatalf("RunsForEpisode failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.Status != episode.RunSuccess {
		t.Fatalf("unexpected status %q", run.Status)
	}
	if run.FinishedAt == nil {
		t.Fatal("expected finished_at to be set")
	}
	if run.CostUSD != 0.0885 {
		t.Fatalf("unexpected cost: %v", run.CostUSD)
	}
	if run.CorrelationID != "corr-1" {
		t.Fatalf("unexpected correlation id: %q", run.CorrelationID)
	}
}

func TestCostAggregation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewEpisode(t, store, "ep001", "Folge 1")
	testsupport.NewEpisode(t, store, "ep002", "Folge 2")

	for i, spend := range []episode.RunOutcome{
		{Status: episode.RunSuccess, InputTokens: 1000, OutputTokens: 200, CostUSD: 0.006},
		{Status: episode.RunSuccess, InputTokens: 2000, OutputTokens: 400, CostUSD: 0.012},
	} {
		runID, err := store.StartRun(ctx, "ep001", "generate", "")
		if err != nil {
			t.Fatalf("StartRun %d failed: %v", i, err)
		}
		if err := store.FinishRun(ctx, runID, spend); err != nil {
			t.Fatalf("FinishRun %d failed: %v", i, err)
		}
	}

	summary, err := store.EpisodeCost(ctx, "ep001")
	if err != nil {
		t.Fatalf("EpisodeCost failed: %v", err)
	}
	if summary.InputTokens != 3000 || summary.OutputTokens != 600 {
		t.Fatalf("unexpected token totals: %+v", summary)
	}
	if summary.CostUSD < 0.0179 || summary.CostUSD > 0.0181 {
		t.Fatalf("unexpected cost total: %v", summary.CostUSD)
	}

	all, err := store.TotalCosts(ctx)
	if err != nil {
		t.Fatalf("TotalCosts failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected aggregation for 1 episode with runs, got %d", len(all))
	}
}

func TestRecordArtifactKeepsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewEpisode(t, store, "ep001", "Folge 1")

	first := &episode.ContentArtifact{
		EpisodeID:    "ep001",
		ArtifactType: "outline",
		Path:         "/outputs/ep001/outline.tr.md",
		PromptHash:   "abc123",
		Model:        "claude-sonnet-4-20250514",
		SnapshotPath: "/outputs/ep001/retrieval/outline_snapshot.json",
		InputTokens:  5000,
		OutputTokens: 900,
		CostUSD:      0.0285,
	}
	if err := store.RecordArtifact(ctx, first); err != nil {
		t.Fatalf("RecordArtifact failed: %v", err)
	}

	second := *first
	second.PromptHash = "def456"
	second.CostUSD = 0.031
	if err := store.RecordArtifact(ctx, &second); err != nil {
		t.Fatalf("RecordArtifact regeneration failed: %v", err)
	}

	stored, err := store.ArtifactByType(ctx, "ep001", "outline")
	if err != nil {
		t.Fatalf("ArtifactByType failed: %v", err)
	}
	if stored == nil {
		t.Fatal("expected artifact to exist")
	}
	if stored.PromptHash != "def456" {
		t.Fatalf("expected newest hash, got %q", stored.PromptHash)
	}
	if stored.SnapshotPath != first.SnapshotPath {
		t.Fatalf("unexpected snapshot path %q", stored.SnapshotPath)
	}

	all, err := store.ArtifactsForEpisode(ctx, "ep001")
	if err != nil {
		t.Fatalf("ArtifactsForEpisode failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both artifact rows to survive, got %d", len(all))
	}

	missing, err := store.ArtifactByType(ctx, "ep001", "script")
	if err != nil {
		t.Fatalf("ArtifactByType for missing failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing artifact, got %#v", missing)
	}
}

func TestListPendingOrdersOldestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	times := []time.Time{
		time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC),
	}
	for i, published := range times {
		published := published
		ep := &episode.Episode{
			ID:          []string{"ep-mar", "ep-jan", "ep-feb"}[i],
			Title:       "Folge",
			SourceURL:   "https://example.org/audio.mp3",
			PublishedAt: &published,
		}
		if _, err := store.Insert(ctx, ep); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	if err := store.SetStatus(ctx, "ep-jan", episode.StatusGenerated); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	pending, err := store.ListPending(ctx, nil)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
	if pending[0].ID != "ep-feb" || pending[1].ID != "ep-mar" {
		t.Fatalf("unexpected order: %s then %s", pending[0].ID, pending[1].ID)
	}

	since := time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC)
	pending, err = store.ListPending(ctx, &since)
	if err != nil {
		t.Fatalf("ListPending with since failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "ep-mar" {
		t.Fatalf("unexpected since filtering: %#v", pending)
	}
}
