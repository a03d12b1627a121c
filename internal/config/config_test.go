package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"podforge/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("OPENAI_API_KEY", "whisper-key")
	t.Setenv("ANTHROPIC_API_KEY", "llm-key")

	path := writeConfig(t, "[feed]\nsource_type = \"rss\"\nrss_url = \"https://example.org/feed.xml\"\n")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "podforge")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.DatabasePath != filepath.Join(wantData, "podforge.db") {
		t.Fatalf("unexpected database path: %q", cfg.Paths.DatabasePath)
	}
	if cfg.Whisper.APIKey != "whisper-key" {
		t.Fatalf("expected whisper key from env, got %q", cfg.Whisper.APIKey)
	}
	if cfg.LLM.APIKey != "llm-key" {
		t.Fatalf("expected llm key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Chunking.ChunkSize != 1500 {
		t.Fatalf("unexpected chunk size: %d", cfg.Chunking.ChunkSize)
	}
	if cfg.Chunking.OverlapRatio != 0.15 {
		t.Fatalf("unexpected overlap ratio: %v", cfg.Chunking.OverlapRatio)
	}
	if cfg.Retrieval.TopK != 16 {
		t.Fatalf("unexpected top_k: %d", cfg.Retrieval.TopK)
	}
	if cfg.Whisper.Language != "de" {
		t.Fatalf("unexpected whisper language: %q", cfg.Whisper.Language)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.AudioDir, cfg.Paths.TranscriptsDir, cfg.Paths.OutputsDir, cfg.Paths.ReportsDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadRejectsMissingFeedSource(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := writeConfig(t, "[feed]\nsource_type = \"rss\"\n")
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for missing rss_url")
	} else if !strings.Contains(err.Error(), "feed.rss_url") {
		t.Fatalf("unexpected error: %v", err)
	}

	path = writeConfig(t, "[feed]\nsource_type = \"youtube_rss\"\n")
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for missing youtube_channel_id")
	}

	path = writeConfig(t, "[feed]\nsource_type = \"soundcloud\"\n")
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unknown source type")
	}
}

func TestLoadRejectsInvalidChunking(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := writeConfig(t, strings.Join([]string{
		"[feed]",
		"source_type = \"rss\"",
		"rss_url = \"https://example.org/feed.xml\"",
		"[chunking]",
		"overlap_ratio = 1.2",
	}, "\n"))
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for overlap_ratio >= 1")
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Chunking.ChunkSize != 1500 {
		t.Fatalf("sample chunk size: %d", cfg.Chunking.ChunkSize)
	}
}

func TestExpandPathResolvesTilde(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	expanded, err := config.ExpandPath("~/podforge/data")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if expanded != filepath.Join(tempHome, "podforge", "data") {
		t.Fatalf("unexpected expansion: %q", expanded)
	}
}
