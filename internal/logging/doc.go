// Package logging provides slog-based structured logging helpers shared by
// the CLI and the pipeline packages. Loggers carry stable field names so log
// lines from different stages can be correlated by episode and run.
package logging
