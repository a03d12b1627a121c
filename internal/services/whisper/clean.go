package whisper

import (
	"regexp"
	"strings"
)

var multiNewline = regexp.MustCompile(`\n{3,}`)

// CleanTranscript normalizes raw transcription output: collapses excessive
// blank lines and strips trailing whitespace from each line.
func CleanTranscript(raw string) string {
	text := multiNewline.ReplaceAllString(raw, "\n\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
