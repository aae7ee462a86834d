// Package services defines shared utilities consumed by the ingest pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp movie keys, Telegram update IDs, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified at the boundary (unparseable input, transient collaborator
//     failure, invariant violation) instead of collapsing into one catch-all.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform.
package services
