// Package chunker splits transcripts into overlapping, sentence-aligned
// segments sized for retrieval. Boundaries and sizes are deterministic for a
// given input, so re-chunking an unchanged transcript yields identical chunks.
package chunker
