package episode

import (
	"database/sql"
	"errors"
	"time"
)

const episodeColumns = "id, title, source_url, published_at, status, error_message, retry_count, audio_path, transcript_path, output_dir, created_at, updated_at"

func scanEpisode(scanner interface{ Scan(dest ...any) error }) (*Episode, error) {
	var (
		id             string
		title          string
		sourceURL      string
		publishedRaw   sql.NullString
		statusStr      string
		errorMessage   sql.NullString
		retryCount     int64
		audioPath      sql.NullString
		transcriptPath sql.NullString
		outputDir      sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&title,
		&sourceURL,
		&publishedRaw,
		&statusStr,
		&errorMessage,
		&retryCount,
		&audioPath,
		&transcriptPath,
		&outputDir,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	ep := &Episode{
		ID:             id,
		Title:          title,
		SourceURL:      sourceURL,
		Status:         Status(statusStr),
		ErrorMessage:   errorMessage.String,
		RetryCount:     int(retryCount),
		AudioPath:      audioPath.String,
		TranscriptPath: transcriptPath.String,
		OutputDir:      outputDir.String,
	}

	if publishedRaw.Valid {
		if published, err := parseTimeString(publishedRaw.String); err == nil {
			ep.PublishedAt = &published
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		ep.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		ep.UpdatedAt = updated
	}
	return ep, nil
}

const chunkColumns = "chunk_id, episode_id, ordinal, text, char_start, char_end, token_estimate, created_at"

func scanChunk(scanner interface{ Scan(dest ...any) error }) (*Chunk, error) {
	var (
		chunkID       string
		episodeID     string
		ordinal       int64
		text          string
		charStart     int64
		charEnd       int64
		tokenEstimate int64
		createdRaw    sql.NullString
	)

	if err := scanner.Scan(
		&chunkID,
		&episodeID,
		&ordinal,
		&text,
		&charStart,
		&charEnd,
		&tokenEstimate,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	chunk := &Chunk{
		ChunkID:       chunkID,
		EpisodeID:     episodeID,
		Ordinal:       int(ordinal),
		Text:          text,
		CharStart:     int(charStart),
		CharEnd:       int(charEnd),
		TokenEstimate: int(tokenEstimate),
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		chunk.CreatedAt = created
	}
	return chunk, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
