package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podforge/internal/episode"
	"podforge/internal/services"
	"podforge/internal/services/anthropic"
	"podforge/internal/testsupport"
)

// fakeMessagesServer emulates the completion endpoint and records the user
// prompts it receives, keyed by request order.
func fakeMessagesServer(t *testing.T, prompts *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(payload.Messages) > 0 {
			*prompts = append(*prompts, payload.Messages[0].Content)
		}
		fmt.Fprintf(w, `{
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "Antwort %d"}],
			"usage": {"input_tokens": 1000, "output_tokens": 500}
		}`, len(*prompts))
	}))
}

func TestGenerateAllArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ep := testsupport.NewEpisode(t, store, "ep001", "Bitcoin Geschichte und Knappheit")
	testsupport.SeedChunks(t, store, ep.ID, 10)
	if err := store.SetStatus(context.Background(), ep.ID, episode.StatusChunked); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	var prompts []string
	server := fakeMessagesServer(t, &prompts)
	defer server.Close()

	client := anthropic.NewClient(anthropic.Config{
		APIKey:      "test-key",
		BaseURL:     server.URL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	gen := NewGenerator(store, client, cfg, nil)

	result, err := gen.Generate(context.Background(), ep.ID, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(result.Artifacts) != len(ArtifactTypes) {
		t.Fatalf("artifacts = %d, want %d", len(result.Artifacts), len(ArtifactTypes))
	}
	if len(prompts) != len(ArtifactTypes) {
		t.Fatalf("api calls = %d, want %d", len(prompts), len(ArtifactTypes))
	}
	if result.InputTokens != 6000 || result.OutputTokens != 3000 {
		t.Errorf("tokens = %d/%d, want 6000/3000", result.InputTokens, result.OutputTokens)
	}

	outputDir := cfg.EpisodeOutputDir(ep.ID)
	for artifactType, filename := range ArtifactFilenames {
		if _, err := os.Stat(filepath.Join(outputDir, filename)); err != nil {
			t.Errorf("missing artifact file for %s: %v", artifactType, err)
		}
		snapshot := filepath.Join(outputDir, "retrieval", artifactType+"_snapshot.json")
		if _, err := os.Stat(snapshot); err != nil {
			t.Errorf("missing snapshot for %s: %v", artifactType, err)
		}
		record, err := store.ArtifactByType(context.Background(), ep.ID, artifactType)
		if err != nil {
			t.Fatalf("ArtifactByType(%s): %v", artifactType, err)
		}
		if record == nil {
			t.Errorf("no artifact record for %s", artifactType)
		} else if record.PromptHash == "" {
			t.Errorf("empty prompt hash for %s", artifactType)
		} else if record.SnapshotPath != snapshot {
			t.Errorf("snapshot path for %s = %q, want %q", artifactType, record.SnapshotPath, snapshot)
		}
	}

	// The script prompt must embed the generated outline text.
	if !strings.Contains(prompts[1], "Antwort 1") {
		t.Error("script prompt does not include outline text")
	}
	// The qa prompt must embed the generated script text.
	if !strings.Contains(prompts[4], "Antwort 2") {
		t.Error("qa prompt does not include script text")
	}
	// Every prompt carries the source chunks except publishing.
	for i, prompt := range prompts[:5] {
		if !strings.Contains(prompt, "[ep001_C0000]") {
			t.Errorf("prompt %d is missing chunk citations", i)
		}
	}
}

func TestGenerateSkipsExistingArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ep := testsupport.NewEpisode(t, store, "ep002", "Halving und Knappheit")
	testsupport.SeedChunks(t, store, ep.ID, 6)
	if err := store.SetStatus(context.Background(), ep.ID, episode.StatusChunked); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	outputDir := cfg.EpisodeOutputDir(ep.ID)
	outlinePath := filepath.Join(outputDir, ArtifactFilenames[ArtifactOutline])
	testsupport.WriteTextFile(t, outlinePath, "# Vorhandene Gliederung")

	var prompts []string
	server := fakeMessagesServer(t, &prompts)
	defer server.Close()

	client := anthropic.NewClient(anthropic.Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   cfg.LLM.Model,
	})
	gen := NewGenerator(store, client, cfg, nil)

	result, err := gen.Generate(context.Background(), ep.ID, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(prompts) != len(ArtifactTypes)-1 {
		t.Errorf("api calls = %d, want %d", len(prompts), len(ArtifactTypes)-1)
	}
	if len(result.Artifacts) != len(ArtifactTypes) {
		t.Errorf("artifacts = %d, want %d", len(result.Artifacts), len(ArtifactTypes))
	}
	// The reused outline feeds downstream prompts without an API call.
	if !strings.Contains(prompts[0], "Vorhandene Gliederung") {
		t.Error("script prompt does not include the existing outline")
	}
	// No cost is booked for the reused artifact: five calls at 1000/500.
	if result.InputTokens != 5000 {
		t.Errorf("input tokens = %d, want 5000", result.InputTokens)
	}
	if record, err := store.ArtifactByType(context.Background(), ep.ID, ArtifactOutline); err != nil {
		t.Fatalf("ArtifactByType: %v", err)
	} else if record != nil {
		t.Error("reused artifact should not be re-recorded")
	}
}

func TestGenerateForceRegeneratesArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ep := testsupport.NewEpisode(t, store, "ep007", "Lightning und Skalierung")
	testsupport.SeedChunks(t, store, ep.ID, 6)
	if err := store.SetStatus(context.Background(), ep.ID, episode.StatusChunked); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	var prompts []string
	server := fakeMessagesServer(t, &prompts)
	defer server.Close()

	client := anthropic.NewClient(anthropic.Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   cfg.LLM.Model,
	})
	gen := NewGenerator(store, client, cfg, nil)

	if _, err := gen.Generate(context.Background(), ep.ID, false); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	first, err := store.ArtifactByType(context.Background(), ep.ID, ArtifactOutline)
	if err != nil {
		t.Fatalf("ArtifactByType: %v", err)
	}

	// Forced regeneration calls the API for every artifact again and appends
	// new records instead of replacing the earlier ones.
	if _, err := gen.Generate(context.Background(), ep.ID, true); err != nil {
		t.Fatalf("Generate force: %v", err)
	}
	if len(prompts) != 2*len(ArtifactTypes) {
		t.Errorf("api calls = %d, want %d", len(prompts), 2*len(ArtifactTypes))
	}

	artifacts, err := store.ArtifactsForEpisode(context.Background(), ep.ID)
	if err != nil {
		t.Fatalf("ArtifactsForEpisode: %v", err)
	}
	if len(artifacts) != 2*len(ArtifactTypes) {
		t.Errorf("artifact records = %d, want %d", len(artifacts), 2*len(ArtifactTypes))
	}
	latest, err := store.ArtifactByType(context.Background(), ep.ID, ArtifactOutline)
	if err != nil {
		t.Fatalf("ArtifactByType: %v", err)
	}
	if latest == nil || first == nil || latest.ID <= first.ID {
		t.Errorf("latest outline record = %+v, want a newer row than %+v", latest, first)
	}
}

func TestGenerateDryRunWritesPayloads(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDryRun())
	store := testsupport.MustOpenStore(t, cfg)
	ep := testsupport.NewEpisode(t, store, "ep003", "Bitcoin Mining erklaert")
	testsupport.SeedChunks(t, store, ep.ID, 4)
	if err := store.SetStatus(context.Background(), ep.ID, episode.StatusChunked); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	client := anthropic.NewClient(anthropic.Config{
		Model:  cfg.LLM.Model,
		DryRun: true,
	})
	gen := NewGenerator(store, client, cfg, nil)

	result, err := gen.Generate(context.Background(), ep.ID, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.CostUSD != 0 {
		t.Errorf("dry-run cost = %f, want 0", result.CostUSD)
	}

	outputDir := cfg.EpisodeOutputDir(ep.ID)
	for _, artifactType := range ArtifactTypes {
		payloadPath := filepath.Join(outputDir, "dry_run_"+artifactType+".json")
		raw, err := os.ReadFile(payloadPath)
		if err != nil {
			t.Fatalf("read dry-run payload for %s: %v", artifactType, err)
		}
		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Fatalf("parse dry-run payload for %s: %v", artifactType, err)
		}
		if payload["dry_run"] != true {
			t.Errorf("payload for %s is missing dry_run marker", artifactType)
		}
	}
}

func TestGenerateRequiresChunkedStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ep := testsupport.NewEpisode(t, store, "ep004", "Neue Folge")

	client := anthropic.NewClient(anthropic.Config{APIKey: "key", Model: cfg.LLM.Model})
	gen := NewGenerator(store, client, cfg, nil)

	_, err := gen.Generate(context.Background(), ep.ID, false)
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("error = %v, want precondition", err)
	}
}

func TestGenerateNoChunks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ep := testsupport.NewEpisode(t, store, "ep005", "Leere Folge")
	if err := store.SetStatus(context.Background(), ep.ID, episode.StatusChunked); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	client := anthropic.NewClient(anthropic.Config{APIKey: "key", Model: cfg.LLM.Model})
	gen := NewGenerator(store, client, cfg, nil)

	if _, err := gen.Generate(context.Background(), ep.ID, false); err == nil {
		t.Fatal("expected error for episode without chunks")
	}
}

func TestBuildUserPromptDependencies(t *testing.T) {
	chunks := "--- [ep001_C0000] ---\nQuelltext"

	outline, err := buildUserPrompt(ArtifactOutline, "Titel", "ep001", chunks, "", "")
	if err != nil {
		t.Fatalf("outline prompt: %v", err)
	}
	if !strings.Contains(outline, "Titel") || !strings.Contains(outline, "Quelltext") {
		t.Error("outline prompt is missing title or chunks")
	}

	qa, err := buildUserPrompt(ArtifactQA, "Titel", "ep001", chunks, "GLIEDERUNG", "SKRIPT")
	if err != nil {
		t.Fatalf("qa prompt: %v", err)
	}
	if !strings.Contains(qa, "SKRIPT") {
		t.Error("qa prompt is missing the script text")
	}
	if strings.Contains(qa, "GLIEDERUNG") {
		t.Error("qa prompt should not include the outline")
	}

	if _, err := buildUserPrompt("thumbnail", "Titel", "ep001", chunks, "", ""); err == nil {
		t.Fatal("expected error for unknown artifact type")
	}
}

func TestBuildUserPromptTruncatesScript(t *testing.T) {
	longScript := strings.Repeat("ü", publishingScriptLimit+500)
	prompt, err := buildUserPrompt(ArtifactPublishing, "Titel", "ep001", "", "GLIEDERUNG", longScript)
	if err != nil {
		t.Fatalf("publishing prompt: %v", err)
	}
	if strings.Count(prompt, "ü") != publishingScriptLimit {
		t.Errorf("script excerpt = %d runes, want %d", strings.Count(prompt, "ü"), publishingScriptLimit)
	}
}
