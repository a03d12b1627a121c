// Package jobs queues pipeline invocations onto a single background worker.
// One worker matches SQLite's single-writer constraint; job state lives in
// memory while the episode database stays the source of truth.
package jobs
