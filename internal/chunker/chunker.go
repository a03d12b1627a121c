package chunker

import (
	"strings"

	"podforge/internal/episode"
)

// Defaults for transcript segmentation, in characters.
const (
	DefaultChunkSize    = 1500
	DefaultOverlapRatio = 0.15
)

// EstimateTokens gives a rough token count for German text, roughly four
// characters per token. Never returns less than 1.
func EstimateTokens(text string) int {
	est := len([]rune(text)) / 4
	if est < 1 {
		return 1
	}
	return est
}

// Split divides a transcript into overlapping chunks. Character positions are
// counted in runes so multi-byte German text chunks the same regardless of
// encoding width.
//
// Each window prefers to end on a sentence boundary (.!? or newline) found in
// the last 20% of the window. The next window starts one overlap before the
// previous end, and a tail shorter than the overlap is folded into the final
// chunk instead of producing a fragment.
func Split(text, episodeID string, chunkSize int, overlapRatio float64) []*episode.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlapRatio < 0 || overlapRatio >= 1 {
		overlapRatio = DefaultOverlapRatio
	}

	runes := []rune(text)
	total := len(runes)
	overlap := int(float64(chunkSize) * overlapRatio)
	step := chunkSize - overlap

	var chunks []*episode.Chunk
	ordinal := 0
	pos := 0

	for pos < total {
		end := pos + chunkSize
		if end > total {
			end = total
		}

		if end < total {
			searchStart := pos + int(float64(chunkSize)*0.8)
			for i := end; i > searchStart; i-- {
				if i <= total && isSentenceBreak(runes[i-1]) {
					end = i
					break
				}
			}
		}

		body := strings.TrimSpace(string(runes[pos:end]))
		if body != "" {
			chunks = append(chunks, &episode.Chunk{
				ChunkID:       episode.ChunkID(episodeID, ordinal),
				EpisodeID:     episodeID,
				Ordinal:       ordinal,
				Text:          body,
				TokenEstimate: EstimateTokens(body),
				CharStart:     pos,
				CharEnd:       end,
			})
			ordinal++
		}

		next := end - overlap
		if next <= pos {
			next = pos + step
		}
		pos = next

		if pos < total && total-pos < overlap {
			remainder := strings.TrimSpace(string(runes[pos:]))
			if remainder != "" && len(chunks) > 0 {
				last := chunks[len(chunks)-1]
				extended := strings.TrimSpace(string(runes[last.CharStart:]))
				last.Text = extended
				last.TokenEstimate = EstimateTokens(extended)
				last.CharEnd = total
			}
			break
		}
	}

	return chunks
}

func isSentenceBreak(r rune) bool {
	switch r {
	case '.', '!', '?', '\n':
		return true
	}
	return false
}
