package retrieval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type snapshotChunk struct {
	ChunkID string `json:"chunk_id"`
	Ordinal int    `json:"ordinal"`
	Text    string `json:"text"`
	Rank    int    `json:"rank"`
}

type snapshot struct {
	ArtifactType string          `json:"artifact_type"`
	EpisodeID    string          `json:"episode_id"`
	Timestamp    string          `json:"timestamp"`
	TopK         int             `json:"top_k"`
	QueryTerms   []string        `json:"query_terms"`
	Chunks       []snapshotChunk `json:"chunks"`
}

// SaveSnapshot writes the retrieval evidence for one artifact to
// retrieval/{artifact_type}_snapshot.json under outputDir and returns the path.
func SaveSnapshot(chunks []RankedChunk, artifactType, outputDir string, queryTerms []string, topK int) (string, error) {
	snapshotDir := filepath.Join(outputDir, "retrieval")
	if err := os.MkdirAll(snapshotDir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot directory: %w", err)
	}
	path := filepath.Join(snapshotDir, artifactType+"_snapshot.json")

	snap := snapshot{
		ArtifactType: artifactType,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		TopK:         topK,
		QueryTerms:   queryTerms,
		Chunks:       make([]snapshotChunk, 0, len(chunks)),
	}
	if len(chunks) > 0 {
		snap.EpisodeID = chunks[0].EpisodeID
	}
	for _, chunk := range chunks {
		snap.Chunks = append(snap.Chunks, snapshotChunk{
			ChunkID: chunk.ChunkID,
			Ordinal: chunk.Ordinal,
			Text:    chunk.Text,
			Rank:    chunk.Rank,
		})
	}

	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}
