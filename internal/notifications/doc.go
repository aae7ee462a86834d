// Package notifications delivers operator events via ntfy.
//
// The default implementation publishes to the ntfy topic URL configured in
// config.toml and degrades to a no-op when no topic is set. Events cover new
// posts and failures; edits to existing posts are not announced.
package notifications
