// Package episode persists episodes, transcript chunks, pipeline runs, and
// generated artifacts in SQLite. The chunks_fts virtual table backs lexical
// retrieval; it is rebuilt atomically with the chunks table so the index never
// drifts from stored text.
package episode
