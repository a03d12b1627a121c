package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"podforge/internal/logging"
	"podforge/internal/pipeline"
)

// Job actions.
const (
	ActionRun   = "run"
	ActionRetry = "retry"
)

// Job states.
const (
	StateQueued  = "queued"
	StateRunning = "running"
	StateSuccess = "success"
	StateError   = "error"
)

// PipelineRunner is the subset of the pipeline the manager drives.
type PipelineRunner interface {
	RunEpisode(ctx context.Context, episodeID string, force bool) (*pipeline.Report, error)
	Retry(ctx context.Context, episodeID string) (*pipeline.Report, error)
}

// Job tracks one queued pipeline invocation. Jobs live in memory only; the
// episode database remains the source of truth across restarts.
type Job struct {
	ID        string
	EpisodeID string
	Action    string
	State     string
	Message   string
	Force     bool
	CreatedAt time.Time
	UpdatedAt time.Time
	Report    *pipeline.Report
}

// Manager queues pipeline jobs onto a single worker goroutine, matching
// SQLite's single-writer constraint.
type Manager struct {
	runner  PipelineRunner
	logsDir string
	logger  *slog.Logger

	mu     sync.RWMutex
	jobs   map[string]*Job
	closed bool

	queue  chan string
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	closeOnce sync.Once
}

// NewManager starts the worker. Per-episode job logs are appended under
// logsDir/episodes/.
func NewManager(runner PipelineRunner, logsDir string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.MkdirAll(filepath.Join(logsDir, "episodes"), 0o755); err != nil {
		return nil, fmt.Errorf("create job log dir: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		runner:  runner,
		logsDir: logsDir,
		logger:  logger,
		jobs:    make(map[string]*Job),
		queue:   make(chan string, 64),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go m.work()
	return m, nil
}

// Submit queues a job and returns its snapshot. Episodes with an active job
// are rejected so the same episode cannot be processed twice concurrently.
func (m *Manager) Submit(action, episodeID string, force bool) (Job, error) {
	if action != ActionRun && action != ActionRetry {
		return Job{}, fmt.Errorf("unknown job action: %s", action)
	}

	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString()[:12],
		EpisodeID: episodeID,
		Action:    action,
		State:     StateQueued,
		Force:     force,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The active-job check and the enqueue must happen under one lock
	// acquisition, or two submits for the same episode can both pass the
	// check before either lands in the job map.
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Job{}, fmt.Errorf("job manager is shut down")
	}
	if active := m.activeForEpisodeLocked(episodeID); active != nil {
		activeID := active.ID
		m.mu.Unlock()
		return Job{}, fmt.Errorf("episode %s already has an active job %s", episodeID, activeID)
	}
	select {
	case m.queue <- job.ID:
		m.jobs[job.ID] = job
	default:
		m.mu.Unlock()
		return Job{}, fmt.Errorf("job queue is full")
	}
	m.mu.Unlock()

	m.logger.Info("job submitted",
		slog.String("job_id", job.ID),
		slog.String("action", action),
		slog.String("episode_id", episodeID))
	return *job, nil
}

// Get returns a snapshot of a job by id.
func (m *Manager) Get(jobID string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// ActiveForEpisode returns the queued or running job for an episode, if any.
func (m *Manager) ActiveForEpisode(episodeID string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if job := m.activeForEpisodeLocked(episodeID); job != nil {
		snapshot := *job
		return &snapshot
	}
	return nil
}

// activeForEpisodeLocked requires m.mu to be held.
func (m *Manager) activeForEpisodeLocked(episodeID string) *Job {
	for _, job := range m.jobs {
		if job.EpisodeID == episodeID && (job.State == StateQueued || job.State == StateRunning) {
			return job
		}
	}
	return nil
}

// Shutdown stops accepting work and waits for the worker to drain, bounded
// by the context.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		m.cancel()
		close(m.queue)
	})
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) work() {
	defer close(m.done)
	for jobID := range m.queue {
		m.execute(jobID)
	}
}

func (m *Manager) execute(jobID string) {
	m.mu.RLock()
	job, ok := m.jobs[jobID]
	m.mu.RUnlock()
	if !ok {
		return
	}

	m.update(job, func(j *Job) { j.State = StateRunning })
	m.appendLog(job, fmt.Sprintf("Starting %s for %s", job.Action, job.EpisodeID))

	var report *pipeline.Report
	var err error
	switch job.Action {
	case ActionRun:
		report, err = m.runner.RunEpisode(m.ctx, job.EpisodeID, job.Force)
	case ActionRetry:
		report, err = m.runner.Retry(m.ctx, job.EpisodeID)
	}
	if err == nil && report != nil && !report.Success {
		err = fmt.Errorf("%s", report.Error)
	}

	if err != nil {
		m.update(job, func(j *Job) {
			j.State = StateError
			j.Message = err.Error()
			j.Report = report
		})
		m.appendLog(job, "ERROR: "+err.Error())
		m.logger.Error("job failed",
			slog.String("job_id", job.ID),
			slog.String("episode_id", job.EpisodeID),
			slog.String("error", err.Error()))
		return
	}

	m.update(job, func(j *Job) {
		j.State = StateSuccess
		j.Report = report
	})
	m.appendLog(job, "Job completed successfully")
	m.logger.Info("job finished",
		slog.String("job_id", job.ID),
		slog.String("episode_id", job.EpisodeID))
}

func (m *Manager) update(job *Job, apply func(*Job)) {
	m.mu.Lock()
	apply(job)
	job.UpdatedAt = time.Now().UTC()
	m.mu.Unlock()
}

func (m *Manager) appendLog(job *Job, message string) {
	line := fmt.Sprintf("%s [%s] %s\n",
		time.Now().UTC().Format("2006-01-02 15:04:05"), job.Action, message)
	path := filepath.Join(m.logsDir, "episodes", job.EpisodeID+".log")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		m.logger.Warn("failed to write episode log", slog.String("path", path))
		return
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		m.logger.Warn("failed to write episode log", slog.String("path", path))
	}
}
