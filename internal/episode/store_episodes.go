package episode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"podforge/internal/services"
)

// Insert adds a newly detected episode in status "new". It reports false
// without error when the episode already exists, so feed detection can be
// re-run safely.
func (s *Store) Insert(ctx context.Context, ep *Episode) (bool, error) {
	if ep == nil {
		return false, errors.New("episode is nil")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT OR IGNORE INTO episodes (
            id, title, source_url, published_at, status, retry_count, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		ep.ID,
		ep.Title,
		ep.SourceURL,
		nullableTime(ep.PublishedAt),
		StatusNew,
		timestamp,
		timestamp,
	)
	if err != nil {
		return false, fmt.Errorf("insert episode: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// GetByID fetches an episode by identifier. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*Episode, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE id = ?`, id)
	ep, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("episode %q: %w", id, services.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return ep, nil
}

// List returns all episodes ordered by publish date, newest first. Episodes
// without a publish date sort last.
func (s *Store) List(ctx context.Context) ([]*Episode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+episodeColumns+` FROM episodes
         ORDER BY published_at IS NULL, published_at DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()
	return collectEpisodes(rows)
}

// ListPending returns episodes still ahead of the generate stage, oldest
// first, optionally restricted to those published on or after since.
func (s *Store) ListPending(ctx context.Context, since *time.Time) ([]*Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE status IN (?, ?, ?, ?)`
	args := []any{
		string(StatusNew), string(StatusDownloaded),
		string(StatusTranscribed), string(StatusChunked),
	}
	if since != nil {
		query += ` AND published_at >= ?`
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += ` ORDER BY published_at IS NULL, published_at ASC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending episodes: %w", err)
	}
	defer rows.Close()
	return collectEpisodes(rows)
}

func collectEpisodes(rows *sql.Rows) ([]*Episode, error) {
	var episodes []*Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return episodes, nil
}

// SetStatus advances an episode to a new status and clears any recorded error.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE episodes SET status = ?, error_message = NULL, updated_at = ? WHERE id = ?`,
		string(status), timestamp, id)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return requireRow(res, id)
}

// RecordFailure stores a stage failure without touching the status: the
// episode stays at its last reached milestone so a retry re-enters there.
// The retry counter advances by one.
func (s *Store) RecordFailure(ctx context.Context, id, message string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE episodes SET error_message = ?, retry_count = retry_count + 1, updated_at = ?
         WHERE id = ?`,
		nullableString(message), timestamp, id)
	if err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return requireRow(res, id)
}

// ClearError removes a stale error message after a successful run.
func (s *Store) ClearError(ctx context.Context, id string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE episodes SET error_message = NULL, updated_at = ? WHERE id = ?`,
		timestamp, id)
	if err != nil {
		return fmt.Errorf("clear error: %w", err)
	}
	return requireRow(res, id)
}

// SetAudioPath records the downloaded audio file location.
func (s *Store) SetAudioPath(ctx context.Context, id, path string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE episodes SET audio_path = ?, updated_at = ? WHERE id = ?`,
		nullableString(path), timestamp, id)
	if err != nil {
		return fmt.Errorf("set audio path: %w", err)
	}
	return requireRow(res, id)
}

// SetTranscriptPath records the transcript file location.
func (s *Store) SetTranscriptPath(ctx context.Context, id, path string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE episodes SET transcript_path = ?, updated_at = ? WHERE id = ?`,
		nullableString(path), timestamp, id)
	if err != nil {
		return fmt.Errorf("set transcript path: %w", err)
	}
	return requireRow(res, id)
}

// SetOutputDir records where the generated artifact package lives.
func (s *Store) SetOutputDir(ctx context.Context, id, dir string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE episodes SET output_dir = ?, updated_at = ? WHERE id = ?`,
		nullableString(dir), timestamp, id)
	if err != nil {
		return fmt.Errorf("set output dir: %w", err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("episode %q: %w", id, services.ErrNotFound)
	}
	return nil
}
