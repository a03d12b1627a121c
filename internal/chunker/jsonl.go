package chunker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"podforge/internal/episode"
)

type chunkRecord struct {
	ChunkID       string `json:"chunk_id"`
	EpisodeID     string `json:"episode_id"`
	Ordinal       int    `json:"ordinal"`
	Text          string `json:"text"`
	TokenEstimate int    `json:"token_estimate"`
	StartChar     int    `json:"start_char"`
	EndChar       int    `json:"end_char"`
}

// WriteJSONL writes chunks to chunks.jsonl in outputDir, one JSON object per
// line, and returns the file path.
func WriteJSONL(chunks []*episode.Chunk, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create chunk directory: %w", err)
	}
	path := filepath.Join(outputDir, "chunks.jsonl")

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create chunks.jsonl: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetEscapeHTML(false)
	for _, chunk := range chunks {
		record := chunkRecord{
			ChunkID:       chunk.ChunkID,
			EpisodeID:     chunk.EpisodeID,
			Ordinal:       chunk.Ordinal,
			Text:          chunk.Text,
			TokenEstimate: chunk.TokenEstimate,
			StartChar:     chunk.CharStart,
			EndChar:       chunk.CharEnd,
		}
		if err := encoder.Encode(record); err != nil {
			return "", fmt.Errorf("encode chunk %s: %w", chunk.ChunkID, err)
		}
	}
	return path, nil
}
