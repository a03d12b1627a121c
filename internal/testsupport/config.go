package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"podforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = base
	cfgVal.Paths.AudioDir = filepath.Join(base, "audio")
	cfgVal.Paths.TranscriptsDir = filepath.Join(base, "transcripts")
	cfgVal.Paths.ChunksDir = filepath.Join(base, "chunks")
	cfgVal.Paths.OutputsDir = filepath.Join(base, "outputs")
	cfgVal.Paths.ReportsDir = filepath.Join(base, "reports")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.DatabasePath = filepath.Join(base, "podforge.db")
	cfgVal.Paths.LockPath = filepath.Join(base, "podforge.lock")
	cfgVal.Feed.SourceType = "rss"
	cfgVal.Feed.RSSURL = "https://example.org/feed.xml"
	cfgVal.Whisper.APIKey = "test-whisper"
	cfgVal.LLM.APIKey = "test-llm"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDryRun enables dry-run generation on the test config.
func WithDryRun() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.DryRun = true
	}
}

// WithChunking overrides the chunk size and overlap ratio.
func WithChunking(size int, overlap float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Chunking.ChunkSize = size
		b.cfg.Chunking.OverlapRatio = overlap
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default podforge external
// binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"yt-dlp", "ffmpeg"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return cfg.Paths.DataDir
}
