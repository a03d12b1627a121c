package retrieval

import (
	"context"
	"fmt"
	"strings"

	"podforge/internal/episode"
)

// DefaultTopK is the number of chunks retrieved per artifact when unset.
const DefaultTopK = 16

// RankedChunk is a retrieved chunk together with its relevance rank, zero
// being the best match.
type RankedChunk struct {
	*episode.Chunk
	Rank int
}

// BuildQueryTerms extracts content words from an episode title for an FTS5 OR
// query. Punctuation is stripped, hyphenated compounds are split, German
// stopwords and words of two characters or fewer are dropped, and every term
// is double-quoted so hyphens and brackets cannot be read as FTS5 operators.
// Titles with no usable words fall back to the first token, then to "Bitcoin".
func BuildQueryTerms(title string) []string {
	var terms []string
	for _, word := range strings.Fields(title) {
		clean := strings.Trim(word, ".,;:!?\"'()-/[]")
		if clean == "" {
			continue
		}
		for _, part := range strings.FieldsFunc(clean, func(r rune) bool {
			return r == '-' || r == '/'
		}) {
			part = strings.TrimSpace(part)
			if part == "" || isStopword(part) || len([]rune(part)) <= 2 {
				continue
			}
			terms = append(terms, `"`+part+`"`)
		}
	}
	if len(terms) > 0 {
		return terms
	}
	if fields := strings.Fields(title); len(fields) > 0 {
		return []string{`"` + fields[0] + `"`}
	}
	return []string{`"Bitcoin"`}
}

// Retrieve returns up to topK chunks for an episode, best FTS matches first.
// When lexical search yields fewer than topK/2 unique chunks, the selection is
// padded with the episode's leading chunks in transcript order.
func Retrieve(ctx context.Context, store *episode.Store, episodeID string, queryTerms []string, topK int) ([]RankedChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	ftsQuery := strings.Join(queryTerms, " OR ")
	matches, err := store.SearchChunks(ctx, episodeID, ftsQuery, topK)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, topK)
	var ranked []*episode.Chunk
	for _, match := range matches {
		if _, ok := seen[match.ChunkID]; ok {
			continue
		}
		seen[match.ChunkID] = struct{}{}
		ranked = append(ranked, match)
		if len(ranked) >= topK {
			break
		}
	}

	if len(ranked) < topK/2 {
		leading, err := store.ChunksByOrdinal(ctx, episodeID, topK)
		if err != nil {
			return nil, err
		}
		for _, chunk := range leading {
			if len(ranked) >= topK {
				break
			}
			if _, ok := seen[chunk.ChunkID]; ok {
				continue
			}
			seen[chunk.ChunkID] = struct{}{}
			ranked = append(ranked, chunk)
		}
	}

	result := make([]RankedChunk, len(ranked))
	for rank, chunk := range ranked {
		result[rank] = RankedChunk{Chunk: chunk, Rank: rank}
	}
	return result, nil
}

// CitationTag formats the chunk reference the model cites in generated text.
func CitationTag(episodeID string, ordinal int) string {
	return fmt.Sprintf("[%s_C%04d]", episodeID, ordinal)
}

// FormatForPrompt renders retrieved chunks as a labeled block for prompt
// insertion. Each chunk is headed by its citation tag.
func FormatForPrompt(chunks []RankedChunk, episodeID string) string {
	var lines []string
	for _, chunk := range chunks {
		lines = append(lines, fmt.Sprintf("--- %s ---", CitationTag(episodeID, chunk.Ordinal)))
		lines = append(lines, chunk.Text)
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
