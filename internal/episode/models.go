package episode

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an episode.
type Status string

const (
	StatusNew         Status = "new"
	StatusDownloaded  Status = "downloaded"
	StatusTranscribed Status = "transcribed"
	StatusChunked     Status = "chunked"
	StatusGenerated   Status = "generated"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

var allStatuses = []Status{
	StatusNew,
	StatusDownloaded,
	StatusTranscribed,
	StatusChunked,
	StatusGenerated,
	StatusCompleted,
	StatusFailed,
}

var statusOrder = map[Status]int{
	StatusNew:         0,
	StatusDownloaded:  1,
	StatusTranscribed: 2,
	StatusChunked:     3,
	StatusGenerated:   4,
	StatusCompleted:   5,
	StatusFailed:      -1,
}

// Order returns the position of the status along the pipeline. Failed has no
// position and returns -1; comparisons against a failed episode must consult
// the recorded error instead.
func (s Status) Order() int {
	order, ok := statusOrder[s]
	if !ok {
		return -1
	}
	return order
}

// Reached reports whether an episode with this status has passed the given
// milestone. A failed episode has reached nothing.
func (s Status) Reached(milestone Status) bool {
	if s == StatusFailed {
		return false
	}
	return s.Order() >= milestone.Order()
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusOrder[normalized]
	return normalized, ok
}

// Episode represents one podcast episode persisted in SQLite.
type Episode struct {
	ID             string
	Title          string
	SourceURL      string
	PublishedAt    *time.Time
	Status         Status
	ErrorMessage   string
	RetryCount     int
	AudioPath      string
	TranscriptPath string
	OutputDir      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Chunk is one transcript segment addressable by its citation tag.
type Chunk struct {
	ChunkID       string
	EpisodeID     string
	Ordinal       int
	Text          string
	CharStart     int
	CharEnd       int
	TokenEstimate int
	CreatedAt     time.Time
}

// RunStatus is the outcome of a single pipeline run record.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// PipelineRun records one execution of one stage for one episode.
type PipelineRun struct {
	ID            int64
	EpisodeID     string
	Stage         string
	Status        RunStatus
	StartedAt     time.Time
	FinishedAt    *time.Time
	ErrorMessage  string
	InputTokens   int64
	OutputTokens  int64
	CostUSD       float64
	CorrelationID string
}

// ContentArtifact records one generated artifact and the spend behind it.
type ContentArtifact struct {
	ID           int64
	EpisodeID    string
	ArtifactType string
	Path         string
	PromptHash   string
	Model        string
	SnapshotPath string
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
	CreatedAt    time.Time
}

// CostSummary aggregates spend per episode.
type CostSummary struct {
	EpisodeID    string
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
}
