// Package diag provides the recorder's self-diagnostics stream.
//
// Diagnostics describe what the recorder itself is doing (sessions opened and
// saved, hook batches, conversion volume), not the recorded program.
//
// # Usage
//
//	runtrace demo --diag=- --diag-level=debug
//
// # Architecture
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to a file or stderr
//   - FlightRecorder: keeps the latest events, written only if the run fails
//
// # Levels and scopes
//
// LevelError keeps only failures, LevelInfo adds session boundaries,
// LevelDebug adds per-hook and per-value counters.
//
//	ctx = diag.WithTracer(ctx, tracer)
//	span := diag.Begin(diag.FromContext(ctx), diag.ScopeSession, "record", 0)
//	defer span.End("")
package diag
