package config

const (
	defaultDataDir        = "~/.local/share/podforge"
	defaultAudioDir       = "~/.local/share/podforge/audio"
	defaultTranscriptsDir = "~/.local/share/podforge/transcripts"
	defaultChunksDir      = "~/.local/share/podforge/chunks"
	defaultOutputsDir     = "~/.local/share/podforge/outputs"
	defaultReportsDir     = "~/.local/share/podforge/reports"
	defaultLogDir         = "~/.local/share/podforge/logs"
	defaultDatabasePath   = "~/.local/share/podforge/podforge.db"
	defaultLockPath       = "~/.local/share/podforge/podforge.lock"

	defaultFeedSourceType     = "rss"
	defaultFeedRequestTimeout = 30

	defaultWhisperBaseURL        = "https://api.openai.com/v1"
	defaultWhisperModel          = "whisper-1"
	defaultWhisperLanguage       = "de"
	defaultWhisperMaxChunkMB     = 24
	defaultWhisperTimeoutSeconds = 600

	defaultLLMBaseURL        = "https://api.anthropic.com"
	defaultLLMModel          = "claude-sonnet-4-20250514"
	defaultLLMMaxTokens      = 8192
	defaultLLMTemperature    = 0.4
	defaultLLMTimeoutSeconds = 300

	defaultChunkSize    = 1500
	defaultOverlapRatio = 0.15

	defaultRetrievalTopK = 16

	defaultDownloadTimeout = 1800
	defaultMaxRetries      = 3

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:        defaultDataDir,
			AudioDir:       defaultAudioDir,
			TranscriptsDir: defaultTranscriptsDir,
			ChunksDir:      defaultChunksDir,
			OutputsDir:     defaultOutputsDir,
			ReportsDir:     defaultReportsDir,
			LogDir:         defaultLogDir,
			DatabasePath:   defaultDatabasePath,
			LockPath:       defaultLockPath,
		},
		Feed: Feed{
			SourceType:     defaultFeedSourceType,
			RequestTimeout: defaultFeedRequestTimeout,
		},
		Whisper: Whisper{
			BaseURL:        defaultWhisperBaseURL,
			Model:          defaultWhisperModel,
			Language:       defaultWhisperLanguage,
			MaxChunkMB:     defaultWhisperMaxChunkMB,
			TimeoutSeconds: defaultWhisperTimeoutSeconds,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			MaxTokens:      defaultLLMMaxTokens,
			Temperature:    defaultLLMTemperature,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Chunking: Chunking{
			ChunkSize:    defaultChunkSize,
			OverlapRatio: defaultOverlapRatio,
		},
		Retrieval: Retrieval{
			TopK: defaultRetrievalTopK,
		},
		Workflow: Workflow{
			DownloadTimeout: defaultDownloadTimeout,
			MaxRetries:      defaultMaxRetries,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
