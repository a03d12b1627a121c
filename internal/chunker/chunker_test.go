package chunker_test

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"podforge/internal/chunker"
)

func sampleTranscript(sentences int) string {
	var b strings.Builder
	for i := 0; i < sentences; i++ {
		fmt.Fprintf(&b, "Satz %d über Geldpolitik, Knappheit und die Geschichte des Geldes. ", i)
	}
	return b.String()
}

func TestSplitEmptyInput(t *testing.T) {
	if chunks := chunker.Split("", "ep001", 1500, 0.15); chunks != nil {
		t.Fatalf("expected nil for empty input, got %d chunks", len(chunks))
	}
	if chunks := chunker.Split("   \n\t  ", "ep001", 1500, 0.15); chunks != nil {
		t.Fatalf("expected nil for whitespace input, got %d chunks", len(chunks))
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	text := "Ein kurzer Abschnitt über Bitcoin."
	chunks := chunker.Split(text, "ep001", 1500, 0.15)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Fatalf("unexpected chunk text: %q", chunks[0].Text)
	}
	if chunks[0].ChunkID != "ep001_000" {
		t.Fatalf("unexpected chunk id: %q", chunks[0].ChunkID)
	}
	if chunks[0].Ordinal != 0 {
		t.Fatalf("unexpected ordinal: %d", chunks[0].Ordinal)
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	text := sampleTranscript(120)
	first := chunker.Split(text, "ep001", 1500, 0.15)
	second := chunker.Split(text, "ep001", 1500, 0.15)
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Text != second[i].Text || first[i].CharStart != second[i].CharStart || first[i].CharEnd != second[i].CharEnd {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitCoversEntireTranscript(t *testing.T) {
	text := sampleTranscript(100)
	runes := []rune(text)
	chunks := chunker.Split(text, "ep001", 1500, 0.15)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	if chunks[0].CharStart != 0 {
		t.Fatalf("first chunk starts at %d", chunks[0].CharStart)
	}
	last := chunks[len(chunks)-1]
	if last.CharEnd != len(runes) {
		t.Fatalf("last chunk ends at %d, transcript has %d chars", last.CharEnd, len(runes))
	}

	// Consecutive windows must overlap so no boundary sentence is lost.
	for i := 1; i < len(chunks); i++ {
		if chunks[i].CharStart >= chunks[i-1].CharEnd {
			t.Fatalf("gap between chunk %d and %d: %d >= %d",
				i-1, i, chunks[i].CharStart, chunks[i-1].CharEnd)
		}
		if chunks[i].Ordinal != chunks[i-1].Ordinal+1 {
			t.Fatalf("ordinals not sequential at %d", i)
		}
	}
}

func TestSplitChunkCountBand(t *testing.T) {
	// At 1500-char windows with 15% overlap the effective stride is
	// 1275 chars, so a 6000-char transcript lands in 4 to 6 chunks
	// regardless of where sentence snapping moves the cut points.
	var b strings.Builder
	for i := 0; len([]rune(b.String())) < 6000; i++ {
		fmt.Fprintf(&b, "Satz %d über Geldpolitik, Knappheit und die Geschichte des Geldes. ", i)
	}
	text := b.String()

	chunks := chunker.Split(text, "ep001", 1500, 0.15)
	if len(chunks) < 4 || len(chunks) > 6 {
		t.Fatalf("expected 4-6 chunks for %d chars, got %d", len([]rune(text)), len(chunks))
	}
}

func TestSplitTotalSizeBounded(t *testing.T) {
	text := sampleTranscript(100)
	runes := len([]rune(text))
	chunks := chunker.Split(text, "ep001", 1500, 0.15)

	total := 0
	for i, chunk := range chunks {
		size := len([]rune(chunk.Text))
		total += size
		// The final chunk may absorb a tail shorter than the overlap.
		limit := 1500
		if i == len(chunks)-1 {
			limit += 225
		}
		if size > limit {
			t.Fatalf("chunk %d exceeds window: %d chars", chunk.Ordinal, size)
		}
	}
	// Overlap duplicates at most ~15% per window plus the folded tail.
	bound := int(float64(runes) * 1.25)
	if total > bound {
		t.Fatalf("total chunk chars %d exceeds bound %d for %d input chars", total, bound, runes)
	}
}

func TestSplitPrefersSentenceBoundaries(t *testing.T) {
	text := sampleTranscript(120)
	chunks := chunker.Split(text, "ep001", 1500, 0.15)
	for i, chunk := range chunks[:len(chunks)-1] {
		trimmed := strings.TrimSpace(chunk.Text)
		last := trimmed[len(trimmed)-1]
		if last != '.' && last != '!' && last != '?' {
			t.Fatalf("chunk %d does not end on a sentence boundary: %q", i, trimmed[len(trimmed)-20:])
		}
	}
}

func TestSplitFoldsShortTail(t *testing.T) {
	// Build a text whose tail after the final step is shorter than the overlap.
	text := sampleTranscript(50)
	runes := []rune(text)
	chunks := chunker.Split(text, "ep001", 1500, 0.15)
	last := chunks[len(chunks)-1]
	if last.CharEnd != len(runes) {
		t.Fatalf("tail not folded: last chunk ends at %d of %d", last.CharEnd, len(runes))
	}
	tail := strings.TrimSpace(string(runes[len(runes)-30:]))
	if !strings.HasSuffix(last.Text, tail) {
		t.Fatalf("last chunk does not contain transcript tail")
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := chunker.EstimateTokens(""); got != 1 {
		t.Fatalf("empty estimate: %d", got)
	}
	if got := chunker.EstimateTokens("ab"); got != 1 {
		t.Fatalf("short estimate: %d", got)
	}
	if got := chunker.EstimateTokens(strings.Repeat("a", 400)); got != 100 {
		t.Fatalf("400-char estimate: %d", got)
	}
	// Umlauts count as single characters, not bytes.
	if got := chunker.EstimateTokens(strings.Repeat("ü", 400)); got != 100 {
		t.Fatalf("umlaut estimate: %d", got)
	}
}

func TestWriteJSONL(t *testing.T) {
	text := sampleTranscript(60)
	chunks := chunker.Split(text, "ep001", 1500, 0.15)

	dir := t.TempDir()
	path, err := chunker.WriteJSONL(chunks, dir)
	if err != nil {
		t.Fatalf("WriteJSONL failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open jsonl: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lines := 0
	for scanner.Scan() {
		var record map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		for _, key := range []string{"chunk_id", "episode_id", "ordinal", "text", "token_estimate", "start_char", "end_char"} {
			if _, ok := record[key]; !ok {
				t.Fatalf("line %d missing key %q", lines, key)
			}
		}
		lines++
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan jsonl: %v", err)
	}
	if lines != len(chunks) {
		t.Fatalf("expected %d lines, got %d", len(chunks), lines)
	}
}
