package episode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"podforge/internal/services"
)

// StartRun records the beginning of one stage execution and returns the run id.
func (s *Store) StartRun(ctx context.Context, episodeID, stage, correlationID string) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`INSERT INTO pipeline_runs (episode_id, stage, status, started_at, correlation_id)
         VALUES (?, ?, ?, ?, ?)`,
		episodeID, stage, string(RunRunning), timestamp, nullableString(correlationID))
	if err != nil {
		return 0, fmt.Errorf("start run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// RunOutcome captures the terminal state of one stage execution. A run record
// is written once at start and folded exactly once into success or failure;
// rows are never rewritten after that.
type RunOutcome struct {
	Status       RunStatus
	ErrorMessage string
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
}

// FinishRun folds the outcome into a running record. Finishing an already
// finished run is an error.
func (s *Store) FinishRun(ctx context.Context, runID int64, outcome RunOutcome) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE pipeline_runs
         SET status = ?, finished_at = ?, error_message = ?, input_tokens = ?, output_tokens = ?, cost_usd = ?
         WHERE id = ? AND status = ?`,
		string(outcome.Status),
		timestamp,
		nullableString(outcome.ErrorMessage),
		outcome.InputTokens,
		outcome.OutputTokens,
		outcome.CostUSD,
		runID,
		string(RunRunning))
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %d is not running: %w", runID, services.ErrPrecondition)
	}
	return nil
}

// RunsForEpisode returns all pipeline runs for an episode, oldest first.
func (s *Store) RunsForEpisode(ctx context.Context, episodeID string) ([]*PipelineRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, episode_id, stage, status, started_at, finished_at, error_message,
                input_tokens, output_tokens, cost_usd, correlation_id
         FROM pipeline_runs WHERE episode_id = ? ORDER BY id`, episodeID)
	if err != nil {
		return nil, fmt.Errorf("runs for episode: %w", err)
	}
	defer rows.Close()

	var runs []*PipelineRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*PipelineRun, error) {
	var (
		id            int64
		episodeID     string
		stage         string
		statusStr     string
		startedRaw    sql.NullString
		finishedRaw   sql.NullString
		errorMessage  sql.NullString
		inputTokens   int64
		outputTokens  int64
		costUSD       float64
		correlationID sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&episodeID,
		&stage,
		&statusStr,
		&startedRaw,
		&finishedRaw,
		&errorMessage,
		&inputTokens,
		&outputTokens,
		&costUSD,
		&correlationID,
	); err != nil {
		return nil, err
	}

	run := &PipelineRun{
		ID:            id,
		EpisodeID:     episodeID,
		Stage:         stage,
		Status:        RunStatus(statusStr),
		ErrorMessage:  errorMessage.String,
		InputTokens:   inputTokens,
		OutputTokens:  outputTokens,
		CostUSD:       costUSD,
		CorrelationID: correlationID.String,
	}
	if started, err := parseTimeString(startedRaw.String); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

// RecordArtifact appends the row for one generated artifact. Regeneration of
// the same artifact type adds a new row; earlier rows stay as spend history.
func (s *Store) RecordArtifact(ctx context.Context, artifact *ContentArtifact) error {
	if artifact == nil {
		return errors.New("artifact is nil")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(ctx,
		`INSERT INTO content_artifacts (
            episode_id, artifact_type, path, prompt_hash, model, snapshot_path,
            input_tokens, output_tokens, cost_usd, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		artifact.EpisodeID,
		artifact.ArtifactType,
		artifact.Path,
		artifact.PromptHash,
		artifact.Model,
		artifact.SnapshotPath,
		artifact.InputTokens,
		artifact.OutputTokens,
		artifact.CostUSD,
		timestamp)
	if err != nil {
		return fmt.Errorf("record artifact: %w", err)
	}
	return nil
}

// ArtifactByType fetches the most recent artifact record of a type, or nil
// when absent.
func (s *Store) ArtifactByType(ctx context.Context, episodeID, artifactType string) (*ContentArtifact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, episode_id, artifact_type, path, prompt_hash, model, snapshot_path,
                input_tokens, output_tokens, cost_usd, created_at
         FROM content_artifacts WHERE episode_id = ? AND artifact_type = ?
         ORDER BY id DESC LIMIT 1`,
		episodeID, artifactType)
	artifact, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("artifact by type: %w", err)
	}
	return artifact, nil
}

// ArtifactsForEpisode returns all artifact records for an episode.
func (s *Store) ArtifactsForEpisode(ctx context.Context, episodeID string) ([]*ContentArtifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, episode_id, artifact_type, path, prompt_hash, model, snapshot_path,
                input_tokens, output_tokens, cost_usd, created_at
         FROM content_artifacts WHERE episode_id = ? ORDER BY id`, episodeID)
	if err != nil {
		return nil, fmt.Errorf("artifacts for episode: %w", err)
	}
	defer rows.Close()

	var artifacts []*ContentArtifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifacts = append(artifacts, artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return artifacts, nil
}

func scanArtifact(scanner interface{ Scan(dest ...any) error }) (*ContentArtifact, error) {
	var (
		id           int64
		episodeID    string
		artifactType string
		path         string
		promptHash   string
		model        string
		snapshotPath string
		inputTokens  int64
		outputTokens int64
		costUSD      float64
		createdRaw   sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&episodeID,
		&artifactType,
		&path,
		&promptHash,
		&model,
		&snapshotPath,
		&inputTokens,
		&outputTokens,
		&costUSD,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	artifact := &ContentArtifact{
		ID:           id,
		EpisodeID:    episodeID,
		ArtifactType: artifactType,
		Path:         path,
		PromptHash:   promptHash,
		Model:        model,
		SnapshotPath: snapshotPath,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      costUSD,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		artifact.CreatedAt = created
	}
	return artifact, nil
}

// EpisodeCost aggregates token and dollar spend for one episode across all runs.
func (s *Store) EpisodeCost(ctx context.Context, episodeID string) (*CostSummary, error) {
	summary := &CostSummary{EpisodeID: episodeID}
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0), COALESCE(SUM(cost_usd), 0)
         FROM pipeline_runs WHERE episode_id = ?`, episodeID).
		Scan(&summary.InputTokens, &summary.OutputTokens, &summary.CostUSD)
	if err != nil {
		return nil, fmt.Errorf("episode cost: %w", err)
	}
	return summary, nil
}

// TotalCosts aggregates spend per episode across the whole database.
func (s *Store) TotalCosts(ctx context.Context) ([]*CostSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT episode_id, COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0), COALESCE(SUM(cost_usd), 0)
         FROM pipeline_runs GROUP BY episode_id ORDER BY episode_id`)
	if err != nil {
		return nil, fmt.Errorf("total costs: %w", err)
	}
	defer rows.Close()

	var summaries []*CostSummary
	for rows.Next() {
		summary := &CostSummary{}
		if err := rows.Scan(&summary.EpisodeID, &summary.InputTokens, &summary.OutputTokens, &summary.CostUSD); err != nil {
			return nil, fmt.Errorf("scan cost summary: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cost summaries: %w", err)
	}
	return summaries, nil
}
