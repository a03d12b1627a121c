// Package anthropic is a minimal Messages API client with retry, usage
// accounting, and a dry-run mode that writes request payloads to disk instead
// of spending tokens.
package anthropic
