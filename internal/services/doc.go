// Package services defines shared utilities consumed by the pipeline stage
// functions and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp episode identifiers, stage names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (not-found vs precondition vs external tool) uniform
//     across the pipeline.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays consistent.
package services
