// Package daemon coordinates the long-running reelpost process.
//
// It wires the catalog, the ingest handler, the coalescing coordinator, the
// key-sharded dispatcher and the Telegram poller into a single lifecycle with
// flock-based locking to prevent multiple instances, and serves a read-only
// HTTP status API.
//
// Shutdown order matters: the poller stops first, queued merges drain, then
// armed windows are discarded while in-flight publishes finish. Records whose
// first post never went out are rescheduled on the next start.
package daemon
