// Package tmdb provides the minimal TMDB API client used for poster lookups.
//
// Only movie search is exposed. Non-200 responses surface as *StatusError so
// callers can tell throttling and server faults from a definitive answer.
package tmdb
