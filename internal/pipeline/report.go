package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"podforge/internal/services"
)

// Stage result states.
const (
	StageSuccess = "success"
	StageSkipped = "skipped"
	StageFailed  = "failed"
)

// StageResult is the recorded outcome of one stage in a run.
type StageResult struct {
	Stage           string  `json:"stage"`
	Status          string  `json:"status"`
	DurationSeconds float64 `json:"duration_seconds"`
	Detail          string  `json:"detail,omitempty"`
	CostUSD         float64 `json:"cost_usd"`
	Error           string  `json:"error,omitempty"`
}

// Report summarizes one pipeline run over a single episode.
type Report struct {
	EpisodeID    string        `json:"episode_id"`
	Title        string        `json:"title"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at"`
	Success      bool          `json:"success"`
	Error        string        `json:"error,omitempty"`
	TotalCostUSD float64       `json:"total_cost_usd"`
	Stages       []StageResult `json:"stages"`
}

// WriteReport persists a report as JSON under
// reportsDir/{episode_id}/report_{timestamp}.json and returns the path.
func WriteReport(report *Report, reportsDir string) (string, error) {
	dir := filepath.Join(reportsDir, report.EpisodeID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(dir, "report_"+report.StartedAt.Format("20060102_150405")+".json")
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// ReadLatestReport loads the most recent report for an episode, identified
// by the timestamp embedded in the filename.
func ReadLatestReport(reportsDir, episodeID string) (*Report, error) {
	pattern := filepath.Join(reportsDir, episodeID, "report_*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob reports: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no reports for episode %s: %w", episodeID, services.ErrNotFound)
	}
	sort.Strings(matches)

	data, err := os.ReadFile(matches[len(matches)-1])
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &report, nil
}
