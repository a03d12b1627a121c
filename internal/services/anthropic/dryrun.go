package anthropic

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DryRunText is the placeholder content returned for dry-run completions.
const DryRunText = "[DRY RUN - no API call made]"

type dryRunPayload struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	System      string        `json:"system"`
	Messages    []chatMessage `json:"messages"`
	DryRun      bool          `json:"dry_run"`
	Timestamp   string        `json:"timestamp"`
}

func (c *Client) writeDryRun(req Request) (Response, error) {
	if req.DryRunPath != "" {
		payload := dryRunPayload{
			Model:       c.cfg.Model,
			MaxTokens:   c.cfg.MaxTokens,
			Temperature: c.cfg.Temperature,
			System:      req.System,
			Messages:    []chatMessage{{Role: "user", Content: req.User}},
			DryRun:      true,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}
		encoded, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return Response{}, fmt.Errorf("anthropic dry-run: marshal payload: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(req.DryRunPath), 0o755); err != nil {
			return Response{}, fmt.Errorf("anthropic dry-run: create directory: %w", err)
		}
		if err := os.WriteFile(req.DryRunPath, encoded, 0o644); err != nil {
			return Response{}, fmt.Errorf("anthropic dry-run: write payload: %w", err)
		}
	}
	return Response{
		Text:  DryRunText,
		Model: c.cfg.Model,
	}, nil
}
