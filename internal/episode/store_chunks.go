package episode

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ChunkID builds the canonical stored chunk identifier. Ordinals are
// zero-based and follow transcript order.
func ChunkID(episodeID string, ordinal int) string {
	return fmt.Sprintf("%s_%03d", episodeID, ordinal)
}

// ReplaceChunks atomically replaces all chunks for an episode, in both the
// chunks table and the lexical index. Re-running the chunking stage is
// therefore idempotent.
func (s *Store) ReplaceChunks(ctx context.Context, episodeID string, chunks []*Chunk) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin chunk tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE episode_id = ?`, episodeID); err != nil {
			return fmt.Errorf("delete chunks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks_fts WHERE episode_id = ?`, episodeID); err != nil {
			return fmt.Errorf("delete chunk index: %w", err)
		}

		timestamp := time.Now().UTC().Format(time.RFC3339Nano)
		for _, chunk := range chunks {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO chunks (chunk_id, episode_id, ordinal, text, char_start, char_end, token_estimate, created_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				chunk.ChunkID,
				episodeID,
				chunk.Ordinal,
				chunk.Text,
				chunk.CharStart,
				chunk.CharEnd,
				chunk.TokenEstimate,
				timestamp,
			); err != nil {
				return fmt.Errorf("insert chunk %s: %w", chunk.ChunkID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO chunks_fts (chunk_id, episode_id, text) VALUES (?, ?, ?)`,
				chunk.ChunkID,
				episodeID,
				chunk.Text,
			); err != nil {
				return fmt.Errorf("index chunk %s: %w", chunk.ChunkID, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit chunks: %w", err)
		}
		return nil
	})
}

// SearchChunks runs a full-text query restricted to one episode and returns
// matching chunks in relevance order, best first.
func (s *Store) SearchChunks(ctx context.Context, episodeID, query string, limit int) ([]*Chunk, error) {
	if limit <= 0 {
		limit = 16
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.chunk_id, c.episode_id, c.ordinal, c.text, c.char_start, c.char_end, c.token_estimate, c.created_at
         FROM chunks_fts f
         JOIN chunks c ON c.chunk_id = f.chunk_id
         WHERE f.episode_id = ? AND chunks_fts MATCH ?
         ORDER BY f.rank
         LIMIT ?`,
		episodeID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()
	return collectChunks(rows)
}

// ChunksByOrdinal returns the first limit chunks of an episode in transcript order.
func (s *Store) ChunksByOrdinal(ctx context.Context, episodeID string, limit int) ([]*Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE episode_id = ? ORDER BY ordinal`
	args := []any{episodeID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("chunks by ordinal: %w", err)
	}
	defer rows.Close()
	return collectChunks(rows)
}

// CountChunks returns the number of stored chunks for an episode.
func (s *Store) CountChunks(ctx context.Context, episodeID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM chunks WHERE episode_id = ?`, episodeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

func collectChunks(rows *sql.Rows) ([]*Chunk, error) {
	var chunks []*Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return chunks, nil
}
