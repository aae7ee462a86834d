// Package api defines wire-format types for the daemon HTTP API and a small
// client the CLI uses to query a running daemon.
//
// # Key Types
//
// DaemonStatus: running state, uptime, coalescing window counters, poll
// offset and catalog totals.
//
// Movie/Quality: transport representation of a catalog record. Movie carries
// the deep link and the caption the next publish would render.
//
// # Converters
//
// FromMovie: catalog.Movie -> Movie using the configured deep link builder.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
package api
