package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks failures where a referenced episode or record does
	// not exist in the store. Never retried.
	ErrNotFound = errors.New("not found")
	// ErrPrecondition marks a stage invoked while the episode is not in the
	// stage's required status and force was not set.
	ErrPrecondition = errors.New("precondition violation")
	// ErrExternalTool marks failures raised by external collaborators
	// (feed fetch, yt-dlp, transcription API, LLM API).
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks malformed input or state that manual intervention
	// must resolve.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or inconsistent configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
