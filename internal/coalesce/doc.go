// Package coalesce absorbs bursts of arrivals for the same key into one
// deferred action.
//
// Every Schedule call for a key re-arms that key's timer, so a burst keeps
// extending the window instead of firing early. When a window settles the
// fire function runs on its own goroutine; at most one fire per key is in
// flight at a time. A window that settles while the previous fire is still
// running queues exactly one follow-up fire. Timer state is process-local
// and rebuilt from scratch after a restart.
package coalesce
