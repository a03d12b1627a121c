package anthropic

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Claude Sonnet pricing per million tokens.
const (
	inputPricePerM  = 3.0
	outputPricePerM = 15.0
)

// CalculateCost returns the estimated dollar cost of one call, rounded to six
// decimal places.
func CalculateCost(inputTokens, outputTokens int64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPricePerM
	outputCost := float64(outputTokens) / 1_000_000 * outputPricePerM
	return math.Round((inputCost+outputCost)*1e6) / 1e6
}

// PromptHash produces a stable digest over everything that determines an
// artifact's content: the rendered prompt, model, temperature, and the sorted
// set of chunk ids it was grounded on. Matching hashes mean regeneration would
// reproduce the same request.
func PromptHash(prompt, model string, temperature float64, chunkIDs []string) string {
	sorted := make([]string, len(chunkIDs))
	copy(sorted, chunkIDs)
	sort.Strings(sorted)

	payload := strings.Join([]string{
		prompt,
		model,
		strconv.FormatFloat(temperature, 'g', -1, 64),
		strings.Join(sorted, ","),
	}, "|")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
