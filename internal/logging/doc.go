// Package logging assembles the structured slog loggers used across q7z.
//
// It owns the console and JSON handlers, level and output plumbing, the
// standard attribute keys (component, job_id, event_type, ...), log file
// retention, and a sampler that keeps archiver progress from flooding the log.
// Use NewNop in tests and wiring code that has no logger to pass.
package logging
