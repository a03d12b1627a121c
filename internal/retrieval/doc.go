// Package retrieval selects transcript chunks for prompt grounding. Queries
// are built from episode titles, run against the SQLite FTS5 index, and padded
// with leading chunks when lexical search comes up short, so generation always
// has material to cite.
package retrieval
