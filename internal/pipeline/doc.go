// Package pipeline drives episodes through the download, transcribe, chunk,
// and generate stages. Plans are resolved from the episode status before
// execution, every stage execution is recorded as a pipeline run row, and
// each run produces a JSON report.
package pipeline
