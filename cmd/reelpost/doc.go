// Command reelpost runs the channel-to-channel movie poster daemon and
// offers operator commands for inspecting the catalog.
//
// The daemon (`reelpost run`) long-polls the source channel for uploads,
// merges them into per-movie records and publishes one post per movie after
// its settle window. The remaining commands read the catalog directly
// (`movies`, `show`, `resolve`), query a running daemon over its HTTP API
// (`status`), trigger one immediate publish (`republish`), exercise the
// filename extractor offline (`parse`) or manage configuration (`config`).
package main
